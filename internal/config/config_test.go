package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultServerPort, cfg.Server.Port)
	assert.Equal(t, defaultServerHost, cfg.Server.Host)
	assert.Equal(t, defaultReadTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, defaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "file://./migrations", cfg.Database.MigrationsPath)
	assert.Equal(t, defaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, "/media", cfg.Media.PublicBaseURL)
	assert.Equal(t, 15*time.Minute, cfg.Media.S3.PresignTTL)
	assert.Equal(t, 3, cfg.Playback.MaxLoadAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Playback.AutoStartDelay)
	assert.Equal(t, 10*time.Millisecond, cfg.Playback.ReconcileTick)
	assert.Equal(t, int64(20), cfg.Playback.DriftThresholdMs)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SIMPLICITY_SERVER_PORT", "9090")
	t.Setenv("SIMPLICITY_LOGGING_LEVEL", "debug")
	t.Setenv("SIMPLICITY_DATABASE_PATH", "/tmp/test.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
}

func TestLoad_InvalidEnvironmentValue(t *testing.T) {
	t.Setenv("SIMPLICITY_SERVER_PORT", "99999")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{
				Port:         8080,
				Host:         "0.0.0.0",
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 30 * time.Second,
			},
			Logging: LoggingConfig{Level: "info"},
			Playback: PlaybackConfig{
				MaxLoadAttempts:  3,
				ReconcileTick:    10 * time.Millisecond,
				DriftThresholdMs: 20,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid config", func(c *Config) {}, ""},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "invalid read timeout"},
		{"zero write timeout", func(c *Config) { c.Server.WriteTimeout = 0 }, "invalid write timeout"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
		{"zero load attempts", func(c *Config) { c.Playback.MaxLoadAttempts = 0 }, "invalid max load attempts"},
		{"zero reconcile tick", func(c *Config) { c.Playback.ReconcileTick = 0 }, "invalid reconcile tick"},
		{"negative drift threshold", func(c *Config) { c.Playback.DriftThresholdMs = -1 }, "invalid drift threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
