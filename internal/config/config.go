package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the note server.
// Environment variables are parsed from the NOTESERVER_ prefix, e.g.
// NOTESERVER_HTTP_PORT, NOTESERVER_POSTGRES_DSN.
type Config struct {
	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage backend: sqlite or postgres
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/noteshare.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// FrontendURL is the base used to construct view_url in create responses.
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	// Retention and cleanup
	ExpireWindowDays       int `envconfig:"EXPIRE_WINDOW_DAYS" default:"30"`
	CleanupIntervalSeconds int `envconfig:"CLEANUP_INTERVAL_SECONDS" default:"60"`

	// Rate limits, configured independently per route group
	PostLimit              int     `envconfig:"POST_LIMIT" default:"50"`
	PostLimitWindowSeconds float64 `envconfig:"POST_LIMIT_WINDOW_SECONDS" default:"60"`
	GetLimit               int     `envconfig:"GET_LIMIT" default:"100"`
	GetLimitWindowSeconds  float64 `envconfig:"GET_LIMIT_WINDOW_SECONDS" default:"60"`

	// Request body ceilings. Requests carrying embeds are allowed the larger one.
	MaxBodyBytes      int64 `envconfig:"MAX_BODY_BYTES" default:"524288"`
	MaxEmbedBodyBytes int64 `envconfig:"MAX_EMBED_BODY_BYTES" default:"8388608"`

	// AuditSinkURL, when set, posts audit events to an external collector
	// instead of the process log.
	AuditSinkURL string `envconfig:"AUDIT_SINK_URL" default:""`
}

// ExpireWindow returns the configured retention window as a duration.
func (c *Config) ExpireWindow() time.Duration {
	return time.Duration(c.ExpireWindowDays) * 24 * time.Hour
}

// CleanupInterval returns the GC interval, floored at one second.
func (c *Config) CleanupInterval() time.Duration {
	secs := c.CleanupIntervalSeconds
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

// Validate checks cross-field constraints that envconfig cannot express.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("NOTESERVER_SQLITE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("NOTESERVER_POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.ExpireWindowDays < 1 {
		return fmt.Errorf("EXPIRE_WINDOW_DAYS must be at least 1")
	}
	if c.PostLimit < 1 || c.GetLimit < 1 {
		return fmt.Errorf("rate limit ceilings must be at least 1")
	}
	if c.PostLimitWindowSeconds <= 0 || c.GetLimitWindowSeconds <= 0 {
		return fmt.Errorf("rate limit windows must be positive")
	}
	if c.MaxBodyBytes < 1 || c.MaxEmbedBodyBytes < c.MaxBodyBytes {
		return fmt.Errorf("MAX_EMBED_BODY_BYTES must be >= MAX_BODY_BYTES")
	}
	return nil
}

// New creates a Config by parsing NOTESERVER_-prefixed environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("NOTESERVER", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Int("expire_window_days", cfg.ExpireWindowDays).
		Dur("cleanup_interval", cfg.CleanupInterval()).
		Str("frontend_url", cfg.FrontendURL).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config with an in-memory database.
func NewForTesting() *Config {
	return &Config{
		HTTPPort:               8080,
		DBDriver:               "sqlite",
		SQLitePath:             ":memory:",
		FrontendURL:            "http://localhost:3000",
		ExpireWindowDays:       30,
		CleanupIntervalSeconds: 1,
		PostLimit:              50,
		PostLimitWindowSeconds: 60,
		GetLimit:               100,
		GetLimitWindowSeconds:  60,
		MaxBodyBytes:           524288,
		MaxEmbedBodyBytes:      8388608,
	}
}
