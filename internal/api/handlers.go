// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

// Package api exposes the HTTP surface: session lifecycle, event intake,
// and access report queries, routed with Chi.
package api

import (
	"net/http"

	"github.com/vaultview/vaultview/internal/auditlog"
	"github.com/vaultview/vaultview/internal/config"
	"github.com/vaultview/vaultview/internal/docstore"
	"github.com/vaultview/vaultview/internal/session"
)

// Handlers carries the dependencies of every HTTP handler.
type Handlers struct {
	store    auditlog.Store
	registry *session.Registry
	docs     docstore.Resolver
	apiCfg   config.APIConfig
}

// NewHandlers wires the handlers to their collaborators.
func NewHandlers(store auditlog.Store, registry *session.Registry, docs docstore.Resolver, apiCfg config.APIConfig) *Handlers {
	if apiCfg.DefaultPageSize <= 0 {
		apiCfg.DefaultPageSize = 20
	}
	if apiCfg.MaxPageSize < apiCfg.DefaultPageSize {
		apiCfg.MaxPageSize = 100
	}
	return &Handlers{
		store:    store,
		registry: registry,
		docs:     docs,
		apiCfg:   apiCfg,
	}
}

// HealthLive reports process liveness.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady reports readiness by probing the access log store.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Stats(r.Context(), nil, nil); err != nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "access log store is unavailable", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status":         "ready",
		"activeSessions": h.registry.Len(),
	})
}

// pageWindow clamps pagination parameters to the configured bounds.
func (h *Handlers) pageWindow(r *http.Request) (page, pageSize int) {
	page = getIntParam(r, 1, "page")
	if page < 1 {
		page = 1
	}
	pageSize = getIntParam(r, h.apiCfg.DefaultPageSize, "limit", "pageSize")
	if pageSize < 1 {
		pageSize = h.apiCfg.DefaultPageSize
	}
	if pageSize > h.apiCfg.MaxPageSize {
		pageSize = h.apiCfg.MaxPageSize
	}
	return page, pageSize
}
