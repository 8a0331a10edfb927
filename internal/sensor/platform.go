package sensor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/web3-frozen/itchio-monitor/internal/itchio"
	"github.com/web3-frozen/itchio-monitor/internal/metric"
	"github.com/web3-frozen/itchio-monitor/internal/monitor"
)

// ErrNoSnapshot is returned by Setup when the publisher has no data yet.
var ErrNoSnapshot = errors.New("no snapshot available")

// Publisher is the part of monitor.Engine the platform depends on.
type Publisher interface {
	Snapshot() *itchio.Snapshot
	Subscribe(l monitor.Listener) (unsubscribe func())
}

// Options configures the daily change sensors.
type Options struct {
	Clock    Clock
	Location *time.Location
}

// Game is one game known to the platform with the ids of its sensors.
type Game struct {
	ID      int64      `json:"id"`
	Title   string     `json:"title"`
	URL     string     `json:"url"`
	Version string     `json:"version"`
	Device  DeviceInfo `json:"device"`
	Sensors []string   `json:"sensors"`
}

// Platform owns every sensor created at setup. The set of games is fixed
// for the lifetime of the platform.
type Platform struct {
	logger      *slog.Logger
	sensors     []Sensor
	byID        map[string]Sensor
	games       []int64
	primary     map[int64]*Metric
	unsubscribe func()
}

// Setup creates the sensors for every game in the publisher's current
// snapshot, restores persisted daily change state and subscribes to updates.
func Setup(ctx context.Context, pub Publisher, store StateStore, logger *slog.Logger, opts Options) (*Platform, error) {
	snap := pub.Snapshot()
	if snap == nil {
		return nil, ErrNoSnapshot
	}

	p := &Platform{
		logger:  logger,
		byID:    make(map[string]Sensor),
		primary: make(map[int64]*Metric),
	}

	for _, g := range metric.Games(snap) {
		if _, dup := p.primary[g.ID]; dup {
			logger.Warn("duplicate game id in snapshot, skipping", "game_id", g.ID, "title", g.Title)
			continue
		}
		p.games = append(p.games, g.ID)

		for i, def := range metric.Catalog() {
			m := NewMetric(g, def)
			if i == 0 {
				p.primary[g.ID] = m
			}
			dc := NewDailyChange(g, def, store, logger, opts.Clock, opts.Location)
			dc.Restore(ctx)
			p.add(m)
			p.add(dc)
		}
	}

	p.update(ctx, snap)
	p.unsubscribe = pub.Subscribe(p.update)
	logger.Info("sensor platform ready", "games", len(p.games), "sensors", len(p.sensors))
	return p, nil
}

func (p *Platform) add(s Sensor) {
	p.sensors = append(p.sensors, s)
	p.byID[s.UniqueID()] = s
}

func (p *Platform) update(ctx context.Context, snap *itchio.Snapshot) {
	for _, s := range p.sensors {
		s.Update(ctx, snap)
	}
}

// Close stops receiving updates.
func (p *Platform) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
}

// Sensors returns all sensors in creation order.
func (p *Platform) Sensors() []Sensor {
	out := make([]Sensor, len(p.sensors))
	copy(out, p.sensors)
	return out
}

// Get returns the sensor with the given unique id.
func (p *Platform) Get(uniqueID string) (Sensor, bool) {
	s, ok := p.byID[uniqueID]
	return s, ok
}

// States renders every sensor, optionally limited to one game.
func (p *Platform) States(gameID int64) []State {
	out := make([]State, 0, len(p.sensors))
	for _, s := range p.sensors {
		if gameID != 0 && s.GameID() != gameID {
			continue
		}
		out = append(out, s.State())
	}
	return out
}

// Games lists the tracked games with their latest known details.
func (p *Platform) Games() []Game {
	out := make([]Game, 0, len(p.games))
	for _, id := range p.games {
		m := p.primary[id]
		m.mu.RLock()
		g := m.game
		m.mu.RUnlock()

		var ids []string
		for _, s := range p.sensors {
			if s.GameID() == id {
				ids = append(ids, s.UniqueID())
			}
		}
		out = append(out, Game{
			ID:      g.ID,
			Title:   g.Title,
			URL:     g.URL,
			Version: g.Version,
			Device:  NewDeviceInfo(g),
			Sensors: ids,
		})
	}
	return out
}
