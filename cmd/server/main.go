package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/web3-frozen/itchio-monitor/internal/config"
	"github.com/web3-frozen/itchio-monitor/internal/handler"
	"github.com/web3-frozen/itchio-monitor/internal/itchio"
	"github.com/web3-frozen/itchio-monitor/internal/middleware"
	"github.com/web3-frozen/itchio-monitor/internal/monitor"
	"github.com/web3-frozen/itchio-monitor/internal/sensor"
	"github.com/web3-frozen/itchio-monitor/internal/store"
)

// stateBackend is what every store constructor returns.
type stateBackend interface {
	sensor.StateStore
	handler.Pinger
	Close() error
}

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration rejected", "error", err)
		os.Exit(1)
	}
	loc, _ := cfg.Location()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := itchio.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout())
	if err := client.ValidateAPIKey(ctx, cfg.APIKey); err != nil {
		logger.Error("api key rejected", "error", itchio.FormErrorKey, "detail", err)
		os.Exit(1)
	}
	logger.Info("api key validated")

	// State store (retry up to 30s for the backend to come up)
	var db stateBackend
	var err error
	for i := 0; i < 6; i++ {
		db, err = openStateStore(ctx, cfg, logger)
		if err == nil {
			break
		}
		logger.Warn("state store not ready, retrying...", "attempt", i+1, "error", err)
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		logger.Error("failed to open state store after retries", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Polling engine
	engine := monitor.NewEngine(client, logger, cfg.ScanDuration())
	if err := engine.FirstRefresh(ctx); err != nil {
		logger.Error("setup failed, no data from itch.io", "error", err)
		_ = engine.Close()
		os.Exit(1)
	}

	platform, err := sensor.Setup(ctx, engine, db, logger, sensor.Options{Location: loc})
	if err != nil {
		logger.Error("failed to set up sensors", "error", err)
		os.Exit(1)
	}

	go engine.Run(ctx)

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(engine, db))

	r.Route("/api", func(r chi.Router) {
		r.Get("/games", handler.Games(platform))
		r.Get("/sensors", handler.Sensors(platform))
		r.Get("/sensors/{unique_id}", handler.Sensor(platform))
		r.Get("/status", handler.Status(engine))
		r.Post("/refresh", handler.Refresh(engine))
		r.Get("/options", handler.GetOptions(engine))
		r.Put("/options", handler.PutOptions(engine))
		r.Post("/config/validate", handler.ValidateConfig(client))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Timeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	platform.Close()
	if err := engine.Close(); err != nil {
		logger.Warn("engine close", "error", err)
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

// openStateStore picks Postgres when DATABASE_URL is set, then Redis, and
// falls back to process memory.
func openStateStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (stateBackend, error) {
	switch {
	case cfg.DatabaseURL != "":
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("state store: postgres connected and migrated")
		return db, nil
	case cfg.RedisURL != "":
		rs, err := store.NewRedis(cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		logger.Info("state store: redis connected")
		return rs, nil
	default:
		logger.Warn("no DATABASE_URL or REDIS_URL, daily change state will not survive restarts")
		return store.NewMemory(), nil
	}
}
