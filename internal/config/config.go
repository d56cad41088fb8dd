// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and
// config files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort   = 8080
	defaultServerHost   = "0.0.0.0"
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultDatabasePath = "./data/simplicity.db"
	defaultLogLevel     = "info"
	defaultLogPretty    = false
	envPrefix           = "SIMPLICITY"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Media    MediaConfig
	Playback PlaybackConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Path           string
	MigrationsPath string
	SeedPath       string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// MediaConfig holds media source resolution configuration
type MediaConfig struct {
	// LibraryPath is the directory relative source paths resolve under
	LibraryPath string

	// PublicBaseURL prefixes library-relative sources in resolved URLs
	PublicBaseURL string

	S3 S3Config
}

// S3Config holds the settings for resolving s3:// media sources into
// presigned URLs
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
}

// PlaybackConfig holds the playback engine timing tunables
type PlaybackConfig struct {
	// Transport
	LoadTimeout       time.Duration
	MaxLoadAttempts   int
	BackoffStep       time.Duration
	ReadyTimeout      time.Duration
	ReadyPollInterval time.Duration

	// Orchestration
	AutoStartDelay      time.Duration
	SettleDelay         time.Duration
	SentenceSettleDelay time.Duration
	PrePlayDelay        time.Duration
	RecoveryDelay       time.Duration
	ReconcileTick       time.Duration
	DriftThresholdMs    int64
}

// Load reads configuration from .env file, config files, environment
// variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/simplicity")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)

	// Database defaults
	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("database.migrationspath", "file://./migrations")
	v.SetDefault("database.seedpath", "./data/presentations")

	// Logging defaults
	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	// Media defaults
	v.SetDefault("media.librarypath", "./data/media")
	v.SetDefault("media.publicbaseurl", "/media")
	v.SetDefault("media.s3.region", "us-east-1")
	v.SetDefault("media.s3.presignttl", 15*time.Minute)

	// Playback defaults
	v.SetDefault("playback.loadtimeout", 10*time.Second)
	v.SetDefault("playback.maxloadattempts", 3)
	v.SetDefault("playback.backoffstep", 1*time.Second)
	v.SetDefault("playback.readytimeout", 5*time.Second)
	v.SetDefault("playback.readypollinterval", 100*time.Millisecond)
	v.SetDefault("playback.autostartdelay", 200*time.Millisecond)
	v.SetDefault("playback.settledelay", 100*time.Millisecond)
	v.SetDefault("playback.sentencesettledelay", 50*time.Millisecond)
	v.SetDefault("playback.preplaydelay", 50*time.Millisecond)
	v.SetDefault("playback.recoverydelay", 2*time.Second)
	v.SetDefault("playback.reconciletick", 10*time.Millisecond)
	v.SetDefault("playback.driftthresholdms", 20)
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	if c.Playback.MaxLoadAttempts < 1 {
		return fmt.Errorf("invalid max load attempts: %d (must be >= 1)", c.Playback.MaxLoadAttempts)
	}
	if c.Playback.ReconcileTick <= 0 {
		return fmt.Errorf("invalid reconcile tick: %v (must be > 0)", c.Playback.ReconcileTick)
	}
	if c.Playback.DriftThresholdMs < 0 {
		return fmt.Errorf("invalid drift threshold: %d (must be >= 0)", c.Playback.DriftThresholdMs)
	}

	return nil
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
