package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/validate"
	infisical "github.com/infisical/go-sdk"
	"github.com/joho/godotenv"
)

const (
	DefaultScanInterval = 5
	MinScanInterval     = 5
	DefaultAPITimeout   = 30
	DefaultBaseURL      = "https://itch.io/api/1"
)

type Config struct {
	Port           string `validate:"required"`
	APIKey         string `validate:"required" message:"ITCHIO_API_KEY is required"`
	BaseURL        string `validate:"required|fullUrl"`
	ScanInterval   int    `validate:"required|min:5" message:"min:scan_interval must be at least 5 minutes"`
	APITimeout     int    `validate:"required|min:1"`
	Timezone       string
	DatabaseURL    string
	RedisURL       string
	RedisPassword  string
	FrontendOrigin string
	LogLevel       string `validate:"in:debug,info,warn,error"`
}

// Options are the settings that may change after setup.
type Options struct {
	ScanInterval int `json:"scan_interval" validate:"required|min:5" message:"min:scan_interval must be at least 5 minutes"`
}

func Load() Config {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg := Config{
		Port:           envOr("PORT", "8080"),
		APIKey:         os.Getenv("ITCHIO_API_KEY"),
		BaseURL:        envOr("ITCHIO_API_BASE_URL", DefaultBaseURL),
		ScanInterval:   envIntOr("ITCHIO_SCAN_INTERVAL", DefaultScanInterval),
		APITimeout:     envIntOr("ITCHIO_API_TIMEOUT", DefaultAPITimeout),
		Timezone:       envOr("TIMEZONE", "Local"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		FrontendOrigin: envOr("FRONTEND_ORIGIN", "*"),
		LogLevel:       strings.ToLower(envOr("LOG_LEVEL", "info")),
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

// Validate checks the configuration before any network activity.
func (c Config) Validate() error {
	v := validate.Struct(&c)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %s", v.Errors.One())
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: TIMEZONE: %w", err)
	}
	return nil
}

// Validate checks an options update.
func (o Options) Validate() error {
	v := validate.Struct(&o)
	if !v.Validate() {
		return errors.New(v.Errors.One())
	}
	return nil
}

func (c Config) Options() Options {
	return Options{ScanInterval: c.ScanInterval}
}

func (c Config) ScanDuration() time.Duration {
	return time.Duration(c.ScanInterval) * time.Minute
}

func (o Options) ScanDuration() time.Duration {
	return time.Duration(o.ScanInterval) * time.Minute
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.APITimeout) * time.Second
}

// Location resolves the timezone used for daily change boundaries.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL", "https://app.infisical.com")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	secrets := map[string]*string{
		"ITCHIO_API_KEY": &cfg.APIKey,
		"DATABASE_URL":   &cfg.DatabaseURL,
		"REDIS_PASSWORD": &cfg.RedisPassword,
	}

	for key, target := range secrets {
		if *target != "" {
			continue // env var already set, skip
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envIntOr returns fallback when key is unset. An unparseable value yields 0
// so validation rejects it instead of silently using the default.
func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}
