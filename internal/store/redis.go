package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/web3-frozen/itchio-monitor/internal/metric"
)

const redisKeyPrefix = "itchio:state:"

// RedisStore persists daily change state as one JSON value per sensor.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(redisURL, password string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (r *RedisStore) Close() error { return r.rdb.Close() }

func (r *RedisStore) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func (r *RedisStore) LoadState(ctx context.Context, uniqueID string) (*metric.DeltaState, error) {
	data, err := r.rdb.Get(ctx, redisKeyPrefix+uniqueID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", uniqueID, err)
	}

	var st metric.DeltaState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", uniqueID, err)
	}
	return &st, nil
}

func (r *RedisStore) SaveState(ctx context.Context, uniqueID string, st metric.DeltaState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", uniqueID, err)
	}
	// 0 = no expiry
	if err := r.rdb.Set(ctx, redisKeyPrefix+uniqueID, data, 0).Err(); err != nil {
		return fmt.Errorf("save state %s: %w", uniqueID, err)
	}
	return nil
}
