// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// ErrNoProviderConfigured is returned when no provider API key is set.
var ErrNoProviderConfigured = errors.New("config: at least one provider API key is required")

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Provider API keys; a provider is registered only when its key is set.
	RunwayAPIKey  string `env:"RUNWAY_API_KEY" json:"-"`  // Masked in JSON
	ViduAPIKey    string `env:"VIDU_API_KEY" json:"-"`    // Masked in JSON
	MiniMaxAPIKey string `env:"MINIMAX_API_KEY" json:"-"` // Masked in JSON

	// Polling settings
	PollMaxAttempts  int `env:"POLL_MAX_ATTEMPTS, default=120" json:"poll_max_attempts"`
	PollIntervalSec  int `env:"POLL_INTERVAL_SEC, default=5" json:"poll_interval_sec"`
	PollProgressStep int `env:"POLL_PROGRESS_STEP, default=5" json:"poll_progress_step"`

	// Optional S3 settings for reference asset hosting
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Local asset hosting fallback when S3 is not configured
	AssetDir     string `env:"ASSET_DIR, default=/tmp/videogen-assets" json:"asset_dir"`
	AssetBaseURL string `env:"ASSET_BASE_URL, default=http://localhost:8080/assets" json:"asset_base_url"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// PollInterval returns the inter-attempt delay as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that at least one provider is configured.
func (c *Config) Validate() error {
	if c.RunwayAPIKey == "" && c.ViduAPIKey == "" && c.MiniMaxAPIKey == "" {
		return ErrNoProviderConfigured
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, Runway: %t, Vidu: %t, MiniMax: %t, PollMaxAttempts: %d, PollIntervalSec: %d, S3Bucket: %s, S3Region: %s, AssetDir: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.RunwayAPIKey != "",
		c.ViduAPIKey != "",
		c.MiniMaxAPIKey != "",
		c.PollMaxAttempts,
		c.PollIntervalSec,
		c.S3Bucket,
		c.S3Region,
		c.AssetDir,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
