package sensor

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/web3-frozen/itchio-monitor/internal/itchio"
	"github.com/web3-frozen/itchio-monitor/internal/metric"
	"github.com/web3-frozen/itchio-monitor/internal/metrics"
)

// Clock returns the current time. Tests replace it to cross day boundaries.
type Clock func() time.Time

// DailyChange reports how much a metric moved since its previous read today.
// Its baseline is persisted through a StateStore.
type DailyChange struct {
	def      metric.Definition
	uniqueID string
	gameID   int64
	store    StateStore
	logger   *slog.Logger
	now      Clock
	loc      *time.Location

	mu        sync.RWMutex
	game      itchio.GameRecord
	tracker   *metric.Tracker
	delta     float64
	updatedAt time.Time
}

func NewDailyChange(game itchio.GameRecord, def metric.Definition, store StateStore, logger *slog.Logger, now Clock, loc *time.Location) *DailyChange {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	uid := dailyChangeUniqueID(game.ID, def.Kind)
	logger = logger.With("sensor", uid)
	return &DailyChange{
		def:      def,
		uniqueID: uid,
		gameID:   game.ID,
		store:    store,
		logger:   logger,
		now:      now,
		loc:      loc,
		game:     game,
		tracker:  metric.NewTracker(def.Kind, logger),
	}
}

func (d *DailyChange) UniqueID() string  { return d.uniqueID }
func (d *DailyChange) GameID() int64     { return d.gameID }
func (d *DailyChange) Kind() metric.Kind { return d.def.Kind }

// Restore loads persisted state. It must run before the first Update; a load
// failure leaves the tracker uninitialized so the next read starts fresh.
func (d *DailyChange) Restore(ctx context.Context) {
	st, err := d.store.LoadState(ctx, d.uniqueID)
	if err != nil {
		metrics.StateStoreErrorsTotal.WithLabelValues("load").Inc()
		d.logger.Error("restore daily change state failed", "error", err)
		return
	}

	d.mu.Lock()
	d.tracker.Restore(st)
	d.mu.Unlock()

	if st != nil {
		d.logger.Debug("restored daily change state",
			"previous_value", st.PreviousValue, "last_update_date", st.LastUpdateDate)
	}
}

func (d *DailyChange) Update(ctx context.Context, snap *itchio.Snapshot) {
	d.mu.Lock()
	if g, ok := metric.Lookup(snap, d.gameID); ok {
		d.game = g
	}
	current := metric.Extract(d.game, d.def.Kind)
	delta, changed := d.tracker.Compute(current, metric.Today(d.now(), d.loc))
	d.delta = delta
	d.updatedAt = d.now()
	st := d.tracker.State()
	d.mu.Unlock()

	metrics.DailyChange.WithLabelValues(strconv.FormatInt(d.gameID, 10), string(d.def.Kind)).Set(delta)

	if !changed {
		return
	}
	if err := d.store.SaveState(ctx, d.uniqueID, st); err != nil {
		metrics.StateStoreErrorsTotal.WithLabelValues("save").Inc()
		d.logger.Error("persist daily change state failed", "error", err)
	}
}

func (d *DailyChange) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ts := d.tracker.State()
	attrs := gameAttributes(d.game)
	attrs["previous_value"] = ts.PreviousValue
	if ts.LastUpdateDate != "" {
		attrs["last_update_date"] = ts.LastUpdateDate
	} else {
		attrs["last_update_date"] = nil
	}

	st := State{
		UniqueID:   d.uniqueID,
		Name:       "Itch.io " + d.game.Title + " " + d.def.Name + " Daily Change",
		Type:       "daily_change",
		State:      d.delta,
		Unit:       d.def.Unit,
		Icon:       d.def.Icon,
		Attributes: attrs,
		Device:     NewDeviceInfo(d.game),
	}
	if !d.updatedAt.IsZero() {
		t := d.updatedAt
		st.UpdatedAt = &t
	}
	return st
}
