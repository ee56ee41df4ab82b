// Package config loads application configuration from YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/i4ali/macrosnap/logging"
)

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig `json:"database" yaml:"database"`
	Remote   RemoteConfig   `json:"remote" yaml:"remote"`
	Sync     SyncConfig     `json:"sync,omitempty" yaml:"sync,omitempty"`
	Logging  LoggingConfig  `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// DatabaseConfig locates the local SQLite database.
type DatabaseConfig struct {
	Path      string `json:"path" yaml:"path"`
	EnableWAL *bool  `json:"enable_wal,omitempty" yaml:"enable_wal,omitempty"`
}

// RemoteConfig locates the remote record service.
type RemoteConfig struct {
	BaseURL   string `json:"base_url" yaml:"base_url"`
	Zone      string `json:"zone,omitempty" yaml:"zone,omitempty"`
	TimeoutMs int    `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// SyncConfig tunes the sync engine.
type SyncConfig struct {
	BatchSize      int `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
	IntervalSec    int `json:"interval_sec,omitempty" yaml:"interval_sec,omitempty"`
	PassTimeoutSec int `json:"pass_timeout_sec,omitempty" yaml:"pass_timeout_sec,omitempty"`
}

// LoggingConfig mirrors the logging package's settings.
type LoggingConfig struct {
	Level       string `json:"level,omitempty" yaml:"level,omitempty"`
	Format      string `json:"format,omitempty" yaml:"format,omitempty"`
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty"`
	AddSource   bool   `json:"add_source,omitempty" yaml:"add_source,omitempty"`
}

// Default returns a configuration suitable for local development.
func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "macrosnap.db"
	}
	if c.Remote.Zone == "" {
		c.Remote.Zone = "macrosnap"
	}
	if c.Remote.TimeoutMs <= 0 {
		c.Remote.TimeoutMs = 10000
	}
	if c.Sync.BatchSize <= 0 {
		c.Sync.BatchSize = 100
	}
	if c.Sync.IntervalSec <= 0 {
		c.Sync.IntervalSec = 900
	}
	if c.Sync.PassTimeoutSec <= 0 {
		c.Sync.PassTimeoutSec = 300
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Environment == "" {
		c.Logging.Environment = logging.EnvDevelopment
	}
}

// Validate checks the fields defaults cannot repair.
func (c *Config) Validate() error {
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote.base_url is required")
	}
	if !strings.HasPrefix(c.Remote.BaseURL, "http://") && !strings.HasPrefix(c.Remote.BaseURL, "https://") {
		return fmt.Errorf("remote.base_url must be an http or https URL, got %q", c.Remote.BaseURL)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}

// RemoteTimeout returns the per-call remote timeout.
func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutMs) * time.Millisecond
}

// SyncInterval returns the automatic sync period.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Sync.IntervalSec) * time.Second
}

// PassTimeout returns the bound on one sync pass.
func (c *Config) PassTimeout() time.Duration {
	return time.Duration(c.Sync.PassTimeoutSec) * time.Second
}

// LoggerConfig converts the logging section into the logging package's form.
func (c *Config) LoggerConfig() logging.Config {
	return logging.Config{
		Level:       c.Logging.Level,
		Format:      c.Logging.Format,
		Environment: c.Logging.Environment,
		AddSource:   c.Logging.AddSource,
	}
}

// Load reads, parses, defaults, and validates a config file. The format is
// chosen by extension: .yaml/.yml or .json.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case strings.HasSuffix(path, ".json"):
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
