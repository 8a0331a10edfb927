// Package sensor turns game records into long-lived, named metric entities.
// Each game yields one Metric and one DailyChange sensor per metric kind.
package sensor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/web3-frozen/itchio-monitor/internal/itchio"
	"github.com/web3-frozen/itchio-monitor/internal/metric"
)

const (
	Domain       = "itchio"
	Manufacturer = "Itch.io"
)

// Sensor is a readable metric entity.
type Sensor interface {
	UniqueID() string
	GameID() int64
	Kind() metric.Kind

	// Update recomputes the sensor from a fresh snapshot.
	Update(ctx context.Context, snap *itchio.Snapshot)

	// State returns the last computed state. It never recomputes.
	State() State
}

// StateStore persists daily change state between restarts.
type StateStore interface {
	LoadState(ctx context.Context, uniqueID string) (*metric.DeltaState, error)
	SaveState(ctx context.Context, uniqueID string, st metric.DeltaState) error
}

// State is the rendered view of a sensor.
type State struct {
	UniqueID   string         `json:"unique_id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	State      any            `json:"state"`
	Unit       string         `json:"unit_of_measurement"`
	Icon       string         `json:"icon"`
	Attributes map[string]any `json:"attributes"`
	Device     DeviceInfo     `json:"device"`
	UpdatedAt  *time.Time     `json:"updated_at,omitempty"`
}

// DeviceInfo groups all sensors of one game.
type DeviceInfo struct {
	Identifiers      [][2]string `json:"identifiers"`
	Name             string      `json:"name"`
	Manufacturer     string      `json:"manufacturer"`
	Model            string      `json:"model"`
	SWVersion        string      `json:"sw_version"`
	ConfigurationURL string      `json:"configuration_url,omitempty"`
}

// NewDeviceInfo describes the device for a game.
func NewDeviceInfo(g itchio.GameRecord) DeviceInfo {
	version := g.Version
	if version == "" {
		version = "Unknown"
	}
	return DeviceInfo{
		Identifiers:      [][2]string{{Domain, strconv.FormatInt(g.ID, 10)}},
		Name:             "Itch.io Game: " + g.Title,
		Manufacturer:     Manufacturer,
		Model:            "Game",
		SWVersion:        version,
		ConfigurationURL: g.URL,
	}
}

func metricUniqueID(gameID int64, kind metric.Kind) string {
	return fmt.Sprintf("%s_%d_%s", Domain, gameID, kind)
}

func dailyChangeUniqueID(gameID int64, kind metric.Kind) string {
	return metricUniqueID(gameID, kind) + "_daily_change"
}

func gameAttributes(g itchio.GameRecord) map[string]any {
	return map[string]any{
		"game_id": g.ID,
		"title":   g.Title,
		"url":     g.URL,
	}
}
