package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "RUNWAY_API_KEY", "VIDU_API_KEY", "MINIMAX_API_KEY",
		"POLL_MAX_ATTEMPTS", "POLL_INTERVAL_SEC", "POLL_PROGRESS_STEP",
		"S3_BUCKET", "S3_REGION", "S3_ENDPOINT",
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"ASSET_DIR", "ASSET_BASE_URL", "LOG_FORMAT", "LOG_LEVEL",
	} {
		// t.Setenv registers the restore; an empty value would still
		// shadow envconfig defaults, so unset afterwards.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 120, cfg.PollMaxAttempts)
	assert.Equal(t, 5, cfg.PollIntervalSec)
	assert.Equal(t, 5, cfg.PollProgressStep)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.S3Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("VIDU_API_KEY", "vk")
	t.Setenv("POLL_MAX_ATTEMPTS", "10")
	t.Setenv("POLL_INTERVAL_SEC", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "vk", cfg.ViduAPIKey)
	assert.Equal(t, 10, cfg.PollMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.PollInterval())
}

func TestValidate_RequiresProvider(t *testing.T) {
	cfg := &Config{}
	require.ErrorIs(t, cfg.Validate(), ErrNoProviderConfigured)

	cfg.MiniMaxAPIKey = "mk"
	require.NoError(t, cfg.Validate())
}

func TestS3Enabled(t *testing.T) {
	cfg := &Config{S3Bucket: "bucket"}
	assert.False(t, cfg.S3Enabled(), "region is also required")

	cfg.S3Region = "eu-west-1"
	assert.True(t, cfg.S3Enabled())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestString_MasksSecrets(t *testing.T) {
	cfg := &Config{
		Port:         8080,
		RunwayAPIKey: "super-secret-key",
	}

	s := cfg.String()
	assert.NotContains(t, s, "super-secret-key")
	assert.Contains(t, s, "Runway: true")
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogFormat: "json", LogLevel: "debug"}
	logger := cfg.NewLogger()
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(nil, slog.LevelDebug))

	cfg = &Config{LogFormat: "text", LogLevel: "warn"}
	logger = cfg.NewLogger()
	assert.False(t, logger.Enabled(nil, slog.LevelInfo))
}
