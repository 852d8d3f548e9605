// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

// Package config loads and validates the service configuration.
//
// Configuration is layered with Koanf v2: built-in defaults, then an
// optional YAML file, then environment variables. ENV > file > defaults.
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Session   SessionConfig   `koanf:"session"`
	Audit     AuditConfig     `koanf:"audit"`
	Retention RetentionConfig `koanf:"retention"`
	Docstore  DocstoreConfig  `koanf:"docstore"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds authentication and request limiting settings.
type SecurityConfig struct {
	// JWTSecret is the shared HS256 secret the document portal signs
	// tokens with. Minimum 32 characters. Required unless AuthDisabled.
	JWTSecret string `koanf:"jwt_secret"`

	// SessionTimeout bounds locally generated token lifetimes.
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// AuthDisabled turns authentication off for local development.
	AuthDisabled bool `koanf:"auth_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// SessionConfig holds the viewing session timing thresholds.
type SessionConfig struct {
	IdleWarning time.Duration `koanf:"idle_warning"`
	IdleTimeout time.Duration `koanf:"idle_timeout"`
}

// AuditConfig selects and tunes the access log store.
type AuditConfig struct {
	// Backend is "duckdb" or "memory".
	Backend string `koanf:"backend"`

	// Path is the DuckDB database file.
	Path string `koanf:"path"`

	// BufferSize is the capacity of the asynchronous write queue.
	BufferSize int `koanf:"buffer_size"`
}

// RetentionConfig schedules the access log retention sweep.
type RetentionConfig struct {
	Interval     time.Duration `koanf:"interval"`
	Age          time.Duration `koanf:"age"`
	InitialDelay time.Duration `koanf:"initial_delay"`
}

// DocstoreConfig holds the document catalog settings.
type DocstoreConfig struct {
	// Backend is "badger" or "memory".
	Backend string `koanf:"backend"`

	// Path is the Badger directory.
	Path string `koanf:"path"`
}

// APIConfig holds pagination limits.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks invariants that would otherwise surface as runtime
// failures deep inside the service.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if !c.Security.AuthDisabled && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters (set security.auth_disabled for local development)")
	}

	if c.Session.IdleWarning <= 0 {
		return fmt.Errorf("session.idle_warning must be positive")
	}
	if c.Session.IdleTimeout <= c.Session.IdleWarning {
		return fmt.Errorf("session.idle_timeout (%s) must exceed session.idle_warning (%s)",
			c.Session.IdleTimeout, c.Session.IdleWarning)
	}

	switch c.Audit.Backend {
	case "duckdb":
		if c.Audit.Path == "" {
			return fmt.Errorf("audit.path is required for the duckdb backend")
		}
	case "memory":
	default:
		return fmt.Errorf("audit.backend must be \"duckdb\" or \"memory\", got %q", c.Audit.Backend)
	}

	switch c.Docstore.Backend {
	case "badger":
		if c.Docstore.Path == "" {
			return fmt.Errorf("docstore.path is required for the badger backend")
		}
	case "memory":
	default:
		return fmt.Errorf("docstore.backend must be \"badger\" or \"memory\", got %q", c.Docstore.Backend)
	}

	if c.Retention.Interval <= 0 {
		return fmt.Errorf("retention.interval must be positive")
	}
	if c.Retention.Age <= 0 {
		return fmt.Errorf("retention.age must be positive")
	}

	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("api.default_page_size must be at least 1")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size (%d) must be at least api.default_page_size (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}

	return nil
}
