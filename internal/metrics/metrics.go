package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itchio_monitor",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "itchio_monitor",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "itchio_monitor",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Polling metrics ────────────────────────────────────────────────────

var (
	PollTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itchio_monitor",
		Subsystem: "poll",
		Name:      "total",
		Help:      "Total number of poll attempts by outcome (success, fallback, failed).",
	}, []string{"source", "status"})

	PollDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "itchio_monitor",
		Subsystem: "poll",
		Name:      "duration_seconds",
		Help:      "Duration of a poll fetch in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"source"})

	PollLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "itchio_monitor",
		Subsystem: "poll",
		Name:      "last_success_timestamp",
		Help:      "Unix timestamp of the last successful poll.",
	}, []string{"source"})

	SnapshotGames = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "itchio_monitor",
		Subsystem: "snapshot",
		Name:      "games",
		Help:      "Number of games in the current snapshot.",
	}, []string{"source"})

	SnapshotAge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "itchio_monitor",
		Subsystem: "snapshot",
		Name:      "age_seconds",
		Help:      "Age of the snapshot handed to subscribers, in seconds.",
	}, []string{"source"})
)

// ── Game metrics ───────────────────────────────────────────────────────

var (
	MetricValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "itchio_monitor",
		Subsystem: "game",
		Name:      "metric_value",
		Help:      "Current value of a game metric.",
	}, []string{"game_id", "metric_name"})

	DailyChange = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "itchio_monitor",
		Subsystem: "game",
		Name:      "daily_change",
		Help:      "Change of a game metric since its previous read today.",
	}, []string{"game_id", "metric_name"})

	StateStoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itchio_monitor",
		Subsystem: "state",
		Name:      "errors_total",
		Help:      "Total daily change state load/save failures.",
	}, []string{"op"})
)
