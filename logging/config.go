package logging

import (
	"os"
	"strings"
)

// Environment types
const (
	EnvDevelopment = "dev"
	EnvProduction  = "prod"
	EnvTest        = "test"
)

// GetConfigFromEnv creates a logger configuration from environment variables,
// falling back to environment-specific defaults.
func GetConfigFromEnv() Config {
	config := DefaultConfig

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Level = strings.ToLower(level)
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Format = strings.ToLower(format)
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		config.Environment = strings.ToLower(env)
	}
	if addSource := os.Getenv("LOG_ADD_SOURCE"); addSource != "" {
		config.AddSource = strings.ToLower(addSource) == "true"
	}

	switch config.Environment {
	case EnvProduction:
		config.Format = "json"
		config.AddSource = false
	case EnvTest:
		config.Format = "text"
		if config.Level == "info" {
			config.Level = "debug"
		}
	}

	return config
}
