// Package config loads service configuration with defaults, optional
// config file, environment overrides, and runtime overrides.
//
// Precedence, lowest to highest: defaults, config file, PUSHLOG_*
// environment variables, runtime overrides.
package config

import "time"

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	History HistoryConfig `mapstructure:"history"`
	Runs    RunsConfig    `mapstructure:"runs"`

	// Workers is the default analysis concurrency.
	Workers int `mapstructure:"workers"`
}

// ServerConfig configures the HTTP report server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// RateLimit is the per-client request rate for the HTTP API
	// (requests per second); Burst is the allowed burst size.
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`

	// JSON switches log output from console encoding to structured
	// JSON lines.
	JSON bool `mapstructure:"json"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// HistoryConfig configures the SQLite run history.
type HistoryConfig struct {
	// Database is the SQLite path. Empty disables history.
	Database string `mapstructure:"database"`
}

// RunsConfig configures the on-disk run registry.
type RunsConfig struct {
	// Dir is the registry root. Empty disables the registry.
	Dir string `mapstructure:"dir"`
}
