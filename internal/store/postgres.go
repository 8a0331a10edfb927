package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/web3-frozen/itchio-monitor/internal/metric"
)

// Store persists daily change state in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// LoadState returns the persisted state for uniqueID, or nil if none exists.
func (s *Store) LoadState(ctx context.Context, uniqueID string) (*metric.DeltaState, error) {
	var (
		raw  []byte
		date pgtype.Date
	)
	err := s.pool.QueryRow(ctx, `
		SELECT previous_value, last_update_date
		FROM sensor_state WHERE unique_id = $1`, uniqueID).Scan(&raw, &date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", uniqueID, err)
	}

	st := &metric.DeltaState{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &st.PreviousValue); err != nil {
			return nil, fmt.Errorf("decode previous value %s: %w", uniqueID, err)
		}
	}
	if date.Valid {
		st.LastUpdateDate = date.Time.Format(metric.DateLayout)
	}
	return st, nil
}

// SaveState upserts the state for uniqueID.
func (s *Store) SaveState(ctx context.Context, uniqueID string, st metric.DeltaState) error {
	var raw []byte
	if st.PreviousValue != nil {
		var err error
		if raw, err = json.Marshal(st.PreviousValue); err != nil {
			return fmt.Errorf("encode previous value %s: %w", uniqueID, err)
		}
	}

	var date pgtype.Date
	if st.LastUpdateDate != "" {
		t, err := time.Parse(metric.DateLayout, st.LastUpdateDate)
		if err != nil {
			return fmt.Errorf("parse last update date %s: %w", uniqueID, err)
		}
		date = pgtype.Date{Time: t, Valid: true}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sensor_state (unique_id, previous_value, last_update_date, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (unique_id) DO UPDATE
			SET previous_value = $2, last_update_date = $3, updated_at = now()`,
		uniqueID, raw, date)
	if err != nil {
		return fmt.Errorf("save state %s: %w", uniqueID, err)
	}
	return nil
}
