package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/web3-frozen/itchio-monitor/internal/itchio"
	"github.com/web3-frozen/itchio-monitor/internal/metrics"
)

const (
	DefaultScanInterval = 5 * time.Minute
	MinScanInterval     = 5 * time.Minute
)

var (
	// ErrUpdateFailed is returned when a fetch fails and no cached snapshot
	// exists to fall back on.
	ErrUpdateFailed = errors.New("update failed")

	// ErrClosed is returned by Refresh after Close.
	ErrClosed = errors.New("engine closed")

	ErrIntervalTooShort = fmt.Errorf("scan interval must be at least %s", MinScanInterval)
)

// Engine polls a Source on a fixed interval, keeps the last good snapshot
// and pushes it to listeners.
type Engine struct {
	source Source
	logger *slog.Logger

	// fetchMu serializes fetch cycles including listener notification.
	fetchMu sync.Mutex
	current atomic.Pointer[itchio.Snapshot]
	closed  atomic.Bool

	interval atomic.Int64
	resetCh  chan time.Duration

	mu          sync.RWMutex
	state       State
	outcome     Outcome
	lastErr     error
	lastSuccess time.Time
	listeners   map[int]Listener
	nextID      int
}

func NewEngine(src Source, logger *slog.Logger, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	e := &Engine{
		source:    src,
		logger:    logger,
		resetCh:   make(chan time.Duration, 1),
		state:     StateIdle,
		listeners: make(map[int]Listener),
	}
	e.interval.Store(int64(interval))
	return e
}

// Subscribe registers l and returns a function that removes it.
func (e *Engine) Subscribe(l Listener) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = l
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Snapshot returns the last good snapshot, or nil before the first success.
func (e *Engine) Snapshot() *itchio.Snapshot {
	return e.current.Load()
}

// Interval returns the current scan interval.
func (e *Engine) Interval() time.Duration {
	return time.Duration(e.interval.Load())
}

// SetInterval changes the scan interval of a running engine.
func (e *Engine) SetInterval(d time.Duration) error {
	if d < MinScanInterval {
		return ErrIntervalTooShort
	}
	e.interval.Store(int64(d))

	// Keep only the latest request if Run has not picked up the previous one.
	select {
	case <-e.resetCh:
	default:
	}
	e.resetCh <- d
	e.logger.Info("scan interval updated", "interval", d)
	return nil
}

// FirstRefresh runs the initial blocking fetch. An error means the service
// has no data at all and setup must abort.
func (e *Engine) FirstRefresh(ctx context.Context) error {
	if err := e.Refresh(ctx); err != nil {
		return fmt.Errorf("first refresh: %w", err)
	}
	e.logger.Info("first refresh complete", "games", len(e.Snapshot().Games))
	return nil
}

// Refresh runs one fetch cycle. A failed fetch with a cached snapshot is not
// an error: listeners receive the cached snapshot instead.
func (e *Engine) Refresh(ctx context.Context) error {
	e.fetchMu.Lock()
	defer e.fetchMu.Unlock()

	if e.closed.Load() {
		return ErrClosed
	}

	name := e.source.Name()
	e.setState(StateFetching)
	defer e.setState(StateIdle)

	start := time.Now()
	snap, err := e.source.FetchGames(ctx)
	metrics.PollDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	// Results arriving after unload are discarded.
	if e.closed.Load() {
		return ErrClosed
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err != nil {
		prev := e.current.Load()
		if prev == nil {
			metrics.PollTotal.WithLabelValues(name, "failed").Inc()
			e.finish(OutcomeFatal, err)
			e.logger.Error("fetch failed, no cached data", "source", name, "error", err)
			return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
		}

		metrics.PollTotal.WithLabelValues(name, "fallback").Inc()
		e.finish(OutcomeFallback, err)
		e.logger.Warn("fetch failed, using cached snapshot",
			"source", name,
			"error", err,
			"cached_at", prev.FetchedAt.Format(time.RFC3339))
		e.notify(ctx, prev)
		return nil
	}

	e.current.Store(snap)
	metrics.PollTotal.WithLabelValues(name, "success").Inc()
	metrics.PollLastSuccess.WithLabelValues(name).Set(float64(snap.FetchedAt.Unix()))
	metrics.SnapshotGames.WithLabelValues(name).Set(float64(len(snap.Games)))
	e.mu.Lock()
	e.lastSuccess = snap.FetchedAt
	e.mu.Unlock()
	e.finish(OutcomeUpdated, nil)

	e.logger.Info("snapshot", "source", name, "games", len(snap.Games), "duration", time.Since(start).Round(time.Millisecond))
	e.notify(ctx, snap)
	return nil
}

// Run drives Refresh on the scan interval until ctx is cancelled or the
// engine is closed. FirstRefresh is expected to have been called already.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-e.resetCh:
			ticker.Reset(d)
		case <-ticker.C:
			if e.closed.Load() {
				return
			}
			if err := e.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrClosed) {
				e.logger.Error("refresh failed", "error", err)
			}
		}
	}
}

// Close unloads the engine: listeners are dropped, pending results are
// discarded and the source's connections are released.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.mu.Lock()
	e.listeners = make(map[int]Listener)
	e.mu.Unlock()

	if c, ok := e.source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Status reports the engine state for health and API endpoints.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := Status{
		State:        e.state,
		LastOutcome:  e.outcome,
		ScanInterval: e.Interval().String(),
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	if !e.lastSuccess.IsZero() {
		st.LastSuccessAt = e.lastSuccess.Format(time.RFC3339)
	}
	if snap := e.current.Load(); snap != nil {
		st.Games = len(snap.Games)
	}
	return st
}

func (e *Engine) notify(ctx context.Context, snap *itchio.Snapshot) {
	metrics.SnapshotAge.WithLabelValues(e.source.Name()).Set(time.Since(snap.FetchedAt).Seconds())

	e.mu.RLock()
	ls := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		ls = append(ls, l)
	}
	e.mu.RUnlock()

	for _, l := range ls {
		l(ctx, snap)
	}
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) finish(o Outcome, err error) {
	e.mu.Lock()
	e.outcome = o
	e.lastErr = err
	e.mu.Unlock()
}
