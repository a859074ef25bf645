// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"tokengraph/internal/errors"
	"tokengraph/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Server contains HTTP server settings
	Server ServerConfig `json:"server"`

	// Storage contains persistence settings
	Storage StorageConfig `json:"storage"`

	// Billing contains token billing settings
	Billing BillingConfig `json:"billing"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`
}

// StorageConfig contains persistence settings
type StorageConfig struct {
	// Backend selects the storage backend (memory, postgres)
	Backend string `json:"backend"`

	// DSN is the postgres connection string
	DSN string `json:"dsn,omitempty"`
}

// BillingConfig contains token billing settings
type BillingConfig struct {
	// SmoothingAlpha is the exponential-moving-average constant applied
	// when a model owner updates an edge weight. Must be in [0,1].
	SmoothingAlpha float64 `json:"smoothing_alpha"`
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	if c.Billing.SmoothingAlpha < 0 || c.Billing.SmoothingAlpha > 1 {
		return errors.InvalidInput("billing.smoothing_alpha must be in [0,1]")
	}
	return nil
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		Billing: BillingConfig{
			SmoothingAlpha: 0.5,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
