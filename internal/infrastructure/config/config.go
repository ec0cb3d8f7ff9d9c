// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	port := cfg.Server.Port
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/travel-backoffice/internal/domain/reconciler"
)

// Config represents the entire application configuration
type Config struct {
	Storage        StorageConfig        `yaml:"storage"`
	Server         ServerConfig         `yaml:"server"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Observability  ObservabilityConfig  `yaml:"observability"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ReconciliationConfig seeds the reconciliation settings used until a user
// saves their own through the API.
type ReconciliationConfig struct {
	Settings *reconciler.Settings    `yaml:"settings"`
	Filters  []reconciler.FilterRule `yaml:"filters"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	defaultDatabasePath = "backoffice.db"
	defaultPort         = 8085
)

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${BACKOFFICE_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	if cfg.Reconciliation.Settings != nil {
		if err := cfg.Reconciliation.Settings.Validate(); err != nil {
			return nil, fmt.Errorf("reconciliation settings in %s: %w", path, err)
		}
	}
	if err := reconciler.ValidateFilters(cfg.Reconciliation.Filters); err != nil {
		return nil, fmt.Errorf("reconciliation filters in %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	return &Config{
		Storage: StorageConfig{
			DatabasePath: getEnv("BACKOFFICE_DB_PATH", defaultDatabasePath),
		},
		Server: ServerConfig{
			Port:           getEnvInt("BACKOFFICE_PORT", defaultPort),
			AllowedOrigins: getEnvList("BACKOFFICE_ALLOWED_ORIGINS"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// ReconciliationSettings returns the configured settings, or the stock
// defaults when the file has none.
func (c *Config) ReconciliationSettings() reconciler.Settings {
	if c.Reconciliation.Settings != nil {
		return *c.Reconciliation.Settings
	}
	return reconciler.DefaultSettings()
}

// applyDefaults fills values left empty in the YAML file from the environment.
func (c *Config) applyDefaults() {
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = getEnv("BACKOFFICE_DB_PATH", defaultDatabasePath)
	}
	if c.Server.Port == 0 {
		c.Server.Port = getEnvInt("BACKOFFICE_PORT", defaultPort)
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = getEnv("LOG_LEVEL", "info")
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = getEnv("LOG_FORMAT", "text")
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvList splits a comma separated environment variable
func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
