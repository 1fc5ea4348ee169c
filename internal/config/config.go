// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

// Package config provides layered configuration loading for Melographus
// using Koanf v2: built-in defaults, an optional YAML config file, and
// environment variables, with environment variables taking precedence.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the Melographus server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Retention RetentionConfig `koanf:"retention"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file, or ":memory:" for an ephemeral store.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB's memory usage (e.g. "1GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count; 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`

	// QueryTimeout bounds individual aggregation queries.
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	// DefaultTopN is the number of entries returned by the ranked
	// artist/song detail endpoints when no limit is given.
	DefaultTopN int `koanf:"default_top_n"`

	// MaxTopN caps the limit parameter on detail endpoints.
	MaxTopN int `koanf:"max_top_n"`
}

// SecurityConfig holds request throttling and CORS settings.
type SecurityConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// RetentionConfig controls optional pruning of old playback events.
// Disabled by default: the event log is append-only and events are
// otherwise never deleted.
type RetentionConfig struct {
	Enabled       bool          `koanf:"enabled"`
	MaxAgeDays    int           `koanf:"max_age_days"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8646,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:         "/data/melographus.duckdb",
			MaxMemory:    "1GB",
			Threads:      0, // 0 = use runtime.NumCPU()
			QueryTimeout: 30 * time.Second,
		},
		API: APIConfig{
			DefaultTopN: 10,
			MaxTopN:     100,
		},
		Security: SecurityConfig{
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Retention: RetentionConfig{
			Enabled:       false,
			MaxAgeDays:    0,
			SweepInterval: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database.query_timeout must be positive, got %s", c.Database.QueryTimeout)
	}

	if c.API.DefaultTopN < 1 {
		return fmt.Errorf("api.default_top_n must be at least 1, got %d", c.API.DefaultTopN)
	}
	if c.API.MaxTopN < c.API.DefaultTopN {
		return fmt.Errorf("api.max_top_n (%d) must not be below api.default_top_n (%d)",
			c.API.MaxTopN, c.API.DefaultTopN)
	}

	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("security.rate_limit_reqs must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
	}

	if c.Retention.Enabled {
		if c.Retention.MaxAgeDays < 1 {
			return fmt.Errorf("retention.max_age_days must be at least 1 when retention is enabled, got %d",
				c.Retention.MaxAgeDays)
		}
		if c.Retention.SweepInterval <= 0 {
			return fmt.Errorf("retention.sweep_interval must be positive, got %s", c.Retention.SweepInterval)
		}
	}

	return c.validateLogging()
}

// validateLogging checks the logging section.
func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled", "":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console", "":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}
