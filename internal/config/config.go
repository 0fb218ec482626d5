package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/cesargomez89/discosync/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port          string `env:"PORT"`
	DBPath        string `env:"DB_PATH"`
	DiscographyID string `env:"DISCOGRAPHY_ID"`
	LogLevel      string `env:"LOG_LEVEL"`
	LogFormat     string `env:"LOG_FORMAT"`

	DispatchConcurrency  int           `env:"DISPATCH_CONCURRENCY"`
	DispatchPollInterval time.Duration `env:"DISPATCH_POLL_INTERVAL"`
	DispatchBatchSize    int           `env:"DISPATCH_BATCH_SIZE"`
	DispatchMaxAttempts  int           `env:"DISPATCH_MAX_ATTEMPTS"`

	CascadeSongDelete bool `env:"CASCADE_SONG_DELETE"`

	ImportDir         string        `env:"IMPORT_DIR"`
	ImportQuietPeriod time.Duration `env:"IMPORT_QUIET_PERIOD"`

	OpenCCEnabled bool   `env:"OPENCC_ENABLED"`
	OTELEndpoint  string `env:"OTEL_ENDPOINT"`
}

// Defaults returns the configuration used when no environment is set.
func Defaults() *Config {
	return &Config{
		Port:                 constants.DefaultPort,
		DBPath:               constants.DefaultDBPath,
		DiscographyID:        constants.DefaultDiscographyID,
		LogLevel:             "info",
		LogFormat:            "text",
		DispatchConcurrency:  constants.DefaultDispatchConcurrency,
		DispatchPollInterval: constants.DefaultPollInterval,
		DispatchBatchSize:    constants.DefaultDispatchBatchSize,
		DispatchMaxAttempts:  constants.DefaultMaxAttempts,
		ImportQuietPeriod:    constants.DefaultImportQuietPeriod,
	}
}

// Load loads configuration from environment variables with defaults. A
// .env file in the working directory, when present, seeds the environment
// without overriding variables already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	// Validate Port
	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.DiscographyID == "" {
		errors = append(errors, "DISCOGRAPHY_ID cannot be empty")
	}

	// Validate LogLevel
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	// Validate LogFormat
	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	// Dispatcher
	if c.DispatchConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("DISPATCH_CONCURRENCY must be at least 1, got: %d", c.DispatchConcurrency))
	}
	if c.DispatchPollInterval <= 0 {
		errors = append(errors, fmt.Sprintf("DISPATCH_POLL_INTERVAL must be positive, got: %s", c.DispatchPollInterval))
	}
	if c.DispatchBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("DISPATCH_BATCH_SIZE must be at least 1, got: %d", c.DispatchBatchSize))
	}
	if c.DispatchMaxAttempts < 1 {
		errors = append(errors, fmt.Sprintf("DISPATCH_MAX_ATTEMPTS must be at least 1, got: %d", c.DispatchMaxAttempts))
	}

	if c.ImportDir != "" && c.ImportQuietPeriod <= 0 {
		errors = append(errors, fmt.Sprintf("IMPORT_QUIET_PERIOD must be positive, got: %s", c.ImportQuietPeriod))
	}

	if c.OTELEndpoint != "" {
		if _, err := url.Parse(c.OTELEndpoint); err != nil {
			errors = append(errors, fmt.Sprintf("OTEL_ENDPOINT is not a valid URL: %s", c.OTELEndpoint))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
