// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

// Package main is the entry point for the VaultView server.
//
// VaultView monitors document viewing sessions in a web viewer: every view,
// interaction, and extraction attempt becomes an immutable access log
// entry, sessions that sit idle are warned and then force-ended, and
// repeated extraction attempts escalate to a lock on the viewer.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML file, env)
//  2. Access log store: DuckDB (or in-memory for ephemeral deployments)
//  3. Audit recorder: asynchronous write pipeline with a circuit breaker
//  4. Document catalog: Badger (or in-memory)
//  5. Session registry: monitors for live viewing sessions
//  6. HTTP server and retention sweeper under the Suture supervision tree
//
// # Configuration
//
// Environment variables override the config file, which overrides
// defaults:
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export DUCKDB_PATH=/data/vaultview.duckdb
//	export DOCSTORE_PATH=/data/catalog
//	./vaultview
//
// For local development without a portal issuing tokens:
//
//	export AUTH_DISABLED=true
//	export AUDIT_BACKEND=memory
//	export DOCSTORE_BACKEND=memory
//	./vaultview
//
// # Signal handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains,
// every live session is closed with a final SESSION_END entry, the
// recorder flushes its queue, and the stores are closed.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/vaultview/vaultview/internal/api"
	"github.com/vaultview/vaultview/internal/auditlog"
	"github.com/vaultview/vaultview/internal/auth"
	"github.com/vaultview/vaultview/internal/config"
	"github.com/vaultview/vaultview/internal/docstore"
	"github.com/vaultview/vaultview/internal/logging"
	"github.com/vaultview/vaultview/internal/retention"
	"github.com/vaultview/vaultview/internal/session"
	"github.com/vaultview/vaultview/internal/supervisor"
	"github.com/vaultview/vaultview/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("audit_backend", cfg.Audit.Backend).
		Str("docstore_backend", cfg.Docstore.Backend).
		Bool("auth_disabled", cfg.Security.AuthDisabled).
		Msg("Starting VaultView")

	// Access log store.
	var store auditlog.Store
	var db *sql.DB
	switch cfg.Audit.Backend {
	case "duckdb":
		db, err = sql.Open("duckdb", cfg.Audit.Path)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Audit.Path).Msg("Failed to open access log database")
		}
		duckStore := auditlog.NewDuckDBStore(db)
		if err := duckStore.CreateTable(context.Background()); err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize access log schema")
		}
		store = duckStore
	default:
		store = auditlog.NewMemoryStore()
	}
	defer func() {
		if db != nil {
			if err := db.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing access log database")
			}
		}
	}()
	logging.Info().Msg("Access log store initialized")

	// Asynchronous audit write pipeline.
	recorder := auditlog.NewRecorder(store, auditlog.RecorderConfig{
		BufferSize: cfg.Audit.BufferSize,
	})
	defer recorder.Close()

	// Document catalog.
	var docs docstore.Resolver
	var catalogCloser interface{ Close() error }
	switch cfg.Docstore.Backend {
	case "badger":
		badgerStore, err := docstore.OpenBadger(cfg.Docstore.Path)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open document catalog")
		}
		docs = badgerStore
		catalogCloser = badgerStore
	default:
		docs = docstore.NewMemoryStore()
	}
	defer func() {
		if catalogCloser != nil {
			if err := catalogCloser.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing document catalog")
			}
		}
	}()

	// Session registry.
	sessionCfg := session.DefaultConfig()
	sessionCfg.IdleWarning = cfg.Session.IdleWarning
	sessionCfg.IdleTimeout = cfg.Session.IdleTimeout
	registry := session.NewRegistry(sessionCfg, recorder)

	// Authentication.
	var verifier *auth.Verifier
	if !cfg.Security.AuthDisabled {
		verifier, err = auth.NewVerifier(cfg.Security.JWTSecret, cfg.Security.SessionTimeout)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize token verifier")
		}
	}
	authMW := auth.NewMiddleware(verifier, cfg.Security.AuthDisabled)

	// HTTP surface.
	handlers := api.NewHandlers(store, registry, docs, cfg.API)
	router := api.NewRouter(handlers, authMW, cfg.Security)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	// Supervision tree: retention sweeper in the data layer, HTTP server in
	// the API layer.
	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)

	tree.AddDataService(retention.NewSweeper(retention.Config{
		Interval:     cfg.Retention.Interval,
		Age:          cfg.Retention.Age,
		InitialDelay: cfg.Retention.InitialDelay,
	}, store))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("VaultView listening")

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logging.Error().Err(err).Msg("Supervisor tree terminated")
		}
	}

	// Close every live session so each gets its SESSION_END entry before
	// the recorder drains.
	registry.CloseAll(session.ReasonShutdown)

	// Give the detached end callbacks and the writer a moment to drain.
	deadline := time.Now().Add(cfg.Server.ShutdownTimeout)
	for registry.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("VaultView stopped")
	_ = os.Stdout.Sync()
}
