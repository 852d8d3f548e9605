// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_DISABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 4170 {
		t.Errorf("expected default port 4170, got %d", cfg.Server.Port)
	}
	if cfg.Session.IdleWarning != 13*time.Minute {
		t.Errorf("expected 13m idle warning, got %v", cfg.Session.IdleWarning)
	}
	if cfg.Session.IdleTimeout != 15*time.Minute {
		t.Errorf("expected 15m idle timeout, got %v", cfg.Session.IdleTimeout)
	}
	if cfg.Retention.Age != 90*24*time.Hour {
		t.Errorf("expected 90d retention age, got %v", cfg.Retention.Age)
	}
	if cfg.Retention.Interval != 168*time.Hour {
		t.Errorf("expected weekly retention interval, got %v", cfg.Retention.Interval)
	}
	if cfg.Audit.Backend != "duckdb" {
		t.Errorf("expected duckdb backend, got %q", cfg.Audit.Backend)
	}
	if cfg.API.DefaultPageSize != 20 || cfg.API.MaxPageSize != 100 {
		t.Errorf("unexpected page size defaults: %d/%d", cfg.API.DefaultPageSize, cfg.API.MaxPageSize)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("SESSION_IDLE_WARNING", "5m")
	t.Setenv("SESSION_IDLE_TIMEOUT", "7m")
	t.Setenv("AUDIT_BACKEND", "memory")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Session.IdleWarning != 5*time.Minute || cfg.Session.IdleTimeout != 7*time.Minute {
		t.Errorf("idle durations not overridden: %v/%v", cfg.Session.IdleWarning, cfg.Session.IdleTimeout)
	}
	if cfg.Audit.Backend != "memory" {
		t.Errorf("expected memory backend, got %q", cfg.Audit.Backend)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("expected %d CORS origins, got %v", len(want), cfg.Security.CORSOrigins)
	}
	for i, origin := range want {
		if cfg.Security.CORSOrigins[i] != origin {
			t.Errorf("origin %d: expected %q, got %q", i, origin, cfg.Security.CORSOrigins[i])
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9999\nsecurity:\n  auth_disabled: true\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999 from file, got %d", cfg.Server.Port)
	}

	// Environment still wins over the file.
	t.Setenv("HTTP_PORT", "7777")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("expected env to override file, got %d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Security.JWTSecret = strings.Repeat("s", 32)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "port"},
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "short" }, "jwt_secret"},
		{"short secret allowed when auth disabled", func(c *Config) {
			c.Security.JWTSecret = ""
			c.Security.AuthDisabled = true
		}, ""},
		{"idle timeout before warning", func(c *Config) {
			c.Session.IdleWarning = 15 * time.Minute
			c.Session.IdleTimeout = 13 * time.Minute
		}, "idle_timeout"},
		{"unknown audit backend", func(c *Config) { c.Audit.Backend = "sqlite" }, "backend"},
		{"unknown docstore backend", func(c *Config) { c.Docstore.Backend = "s3" }, "backend"},
		{"non-positive retention age", func(c *Config) { c.Retention.Age = 0 }, "retention"},
		{"default page size above max", func(c *Config) {
			c.API.DefaultPageSize = 200
			c.API.MaxPageSize = 100
		}, "page_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEnvTransformDropsUnknownVariables(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("expected unknown variable to be dropped, got %q", got)
	}
	if got := envTransformFunc("JWT_SECRET"); got != "security.jwt_secret" {
		t.Errorf("JWT_SECRET mapped to %q", got)
	}
	if got := envTransformFunc("duckdb_path"); got != "audit.path" {
		t.Errorf("duckdb_path mapped to %q", got)
	}
}
