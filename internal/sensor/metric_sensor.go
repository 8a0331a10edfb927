package sensor

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/web3-frozen/itchio-monitor/internal/itchio"
	"github.com/web3-frozen/itchio-monitor/internal/metric"
	"github.com/web3-frozen/itchio-monitor/internal/metrics"
)

// Metric reports the current value of one metric of one game.
type Metric struct {
	def      metric.Definition
	uniqueID string
	gameID   int64

	mu        sync.RWMutex
	game      itchio.GameRecord
	value     any
	updatedAt time.Time
}

func NewMetric(game itchio.GameRecord, def metric.Definition) *Metric {
	return &Metric{
		def:      def,
		uniqueID: metricUniqueID(game.ID, def.Kind),
		gameID:   game.ID,
		game:     game,
		value:    metric.Extract(game, def.Kind),
	}
}

func (m *Metric) UniqueID() string  { return m.uniqueID }
func (m *Metric) GameID() int64     { return m.gameID }
func (m *Metric) Kind() metric.Kind { return m.def.Kind }

// Update refreshes the cached game record when the snapshot contains it;
// otherwise the last known record keeps being reported.
func (m *Metric) Update(_ context.Context, snap *itchio.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := metric.Lookup(snap, m.gameID); ok {
		m.game = g
	}
	m.value = metric.Extract(m.game, m.def.Kind)
	m.updatedAt = time.Now()

	if v, ok := metric.ToNumber(m.value); ok {
		metrics.MetricValue.WithLabelValues(strconv.FormatInt(m.gameID, 10), string(m.def.Kind)).Set(v)
	}
}

func (m *Metric) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := State{
		UniqueID:   m.uniqueID,
		Name:       "Itch.io " + m.game.Title + " " + m.def.Name,
		Type:       "metric",
		State:      m.value,
		Unit:       m.def.Unit,
		Icon:       m.def.Icon,
		Attributes: gameAttributes(m.game),
		Device:     NewDeviceInfo(m.game),
	}
	if !m.updatedAt.IsZero() {
		t := m.updatedAt
		st.UpdatedAt = &t
	}
	return st
}
