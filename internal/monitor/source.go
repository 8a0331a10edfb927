package monitor

import (
	"context"

	"github.com/web3-frozen/itchio-monitor/internal/itchio"
)

// Source is the upstream the engine polls. itchio.Client implements it.
type Source interface {
	// Name returns a short identifier used in logs and metric labels.
	Name() string

	// FetchGames performs one fetch cycle. Failures are returned as
	// *itchio.TransportError or *itchio.ProtocolError.
	FetchGames(ctx context.Context) (*itchio.Snapshot, error)
}

// Listener is notified with a complete snapshot after every fetch cycle that
// produced data, including cycles that fell back to the cached snapshot.
type Listener func(ctx context.Context, snap *itchio.Snapshot)

// State is the engine's position in its fetch cycle.
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
)

// Outcome is the result of the last completed fetch cycle.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeUpdated  Outcome = "updated"
	OutcomeFallback Outcome = "fetch_failed_with_fallback"
	OutcomeFatal    Outcome = "fetch_failed_fatal"
)

// Status is a point-in-time view of the engine for health and API reporting.
type Status struct {
	State         State   `json:"state"`
	LastOutcome   Outcome `json:"last_outcome,omitempty"`
	LastError     string  `json:"last_error,omitempty"`
	LastSuccessAt string  `json:"last_success_at,omitempty"`
	Games         int     `json:"games"`
	ScanInterval  string  `json:"scan_interval"`
}
