package config

import (
	"os"
	"strconv"
	"time"

	"psephos/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `validate:"required"`
	Database DatabaseConfig
	Data     DataConfig `validate:"required"`
	Pipeline PipelineConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required"`
	GinMode string
}

// DatabaseConfig holds optional Postgres settings. An empty URL runs the
// server memory-only with no stored datasets or session snapshots.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// DataConfig holds dataset file settings
type DataConfig struct {
	File       string `validate:"required"` // CSV or XLSX constituency dataset
	NameColumn string
	CodeColumn string
}

// PipelineConfig holds recompute scheduling settings
type PipelineConfig struct {
	Debounce      time.Duration // coalescing window for full rebuilds
	RenderTimeout time.Duration // bounded wait for one rebuild pass
	SearchLimit   int           // max search results returned
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			URL:     getEnvOrDefault("DATABASE_URL", ""),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Data: DataConfig{
			File:       getEnvOrDefault("DATA_FILE", ""),
			NameColumn: getEnvOrDefault("DATA_NAME_COLUMN", "name"),
			CodeColumn: getEnvOrDefault("DATA_CODE_COLUMN", "code"),
		},
		Pipeline: PipelineConfig{
			Debounce:      getEnvDurationOrDefault("PIPELINE_DEBOUNCE", 150*time.Millisecond),
			RenderTimeout: getEnvDurationOrDefault("RENDER_TIMEOUT", 12*time.Second),
			SearchLimit:   getEnvIntOrDefault("SEARCH_LIMIT", 10),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Data.File == "" {
		return errors.ConfigInvalid("DATA_FILE is required")
	}
	if config.Pipeline.Debounce < 0 {
		return errors.ConfigInvalid("PIPELINE_DEBOUNCE cannot be negative")
	}
	if config.Pipeline.RenderTimeout <= 0 {
		return errors.ConfigInvalid("RENDER_TIMEOUT must be positive")
	}
	if config.Pipeline.SearchLimit < 1 {
		return errors.ConfigInvalid("SEARCH_LIMIT must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
