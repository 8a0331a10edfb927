// Package handler holds the HTTP handlers of the JSON API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/web3-frozen/itchio-monitor/internal/itchio"
	"github.com/web3-frozen/itchio-monitor/internal/monitor"
	"github.com/web3-frozen/itchio-monitor/internal/sensor"
)

// Poller is the slice of *monitor.Engine the handlers use.
type Poller interface {
	Snapshot() *itchio.Snapshot
	Status() monitor.Status
	Refresh(ctx context.Context) error
	Interval() time.Duration
	SetInterval(d time.Duration) error
}

// Registry is the slice of *sensor.Platform the handlers use.
type Registry interface {
	Get(uniqueID string) (sensor.Sensor, bool)
	States(gameID int64) []sensor.State
	Games() []sensor.Game
}

// Pinger reports whether the state store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KeyValidator checks a candidate API key against the upstream.
type KeyValidator interface {
	ValidateAPIKey(ctx context.Context, apiKey string) error
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
