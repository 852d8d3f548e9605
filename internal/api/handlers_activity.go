// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package api

import (
	"net/http"

	"github.com/vaultview/vaultview/internal/auditlog"
	"github.com/vaultview/vaultview/internal/auth"
	"github.com/vaultview/vaultview/internal/models"
)

// OwnActivity handles GET /api/v1/activity: the caller's own access log,
// newest first. A userId parameter naming anyone else is rejected rather
// than silently overridden.
func (h *Handlers) OwnActivity(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	if requested := r.URL.Query().Get("userId"); requested != "" && requested != principal.ID {
		respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "cannot query another user's activity", nil)
		return
	}

	filter, apiErr := h.filterFromQuery(r)
	if apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	filter.UserID = principal.ID

	h.respondLogPage(w, r, filter)
}

// AdminLogs handles GET /api/v1/admin/logs: the full access log with every
// filter dimension available. Operator only, enforced by the route group.
func (h *Handlers) AdminLogs(w http.ResponseWriter, r *http.Request) {
	filter, apiErr := h.filterFromQuery(r)
	if apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	filter.UserID = r.URL.Query().Get("userId")

	h.respondLogPage(w, r, filter)
}

// AdminStats handles GET /api/v1/admin/stats: aggregate counts over an
// optional date window.
func (h *Handlers) AdminStats(w http.ResponseWriter, r *http.Request) {
	start, err := getTimeParam(r, "startDate", "start")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	end, err := getTimeParam(r, "endDate", "end")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	stats, statsErr := h.store.Stats(r.Context(), start, end)
	if statsErr != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to aggregate access log", statsErr)
		return
	}

	respondSuccess(w, http.StatusOK, stats)
}

// filterFromQuery builds the common filter dimensions from query
// parameters. UserID is left for the caller to set according to scope.
func (h *Handlers) filterFromQuery(r *http.Request) (auditlog.Filter, *models.APIError) {
	var filter auditlog.Filter

	filter.DocumentID = r.URL.Query().Get("documentId")
	filter.SessionID = r.URL.Query().Get("sessionId")

	if action := r.URL.Query().Get("action"); action != "" {
		a := auditlog.Action(action)
		if !auditlog.ValidAction(a) {
			return filter, &models.APIError{
				Code:    "VALIDATION_ERROR",
				Message: "unknown action " + sanitizeLogValue(action),
			}
		}
		filter.Action = a
	}

	if severity := r.URL.Query().Get("severity"); severity != "" {
		s := auditlog.Severity(severity)
		if !auditlog.ValidSeverity(s) {
			return filter, &models.APIError{
				Code:    "VALIDATION_ERROR",
				Message: "unknown severity " + sanitizeLogValue(severity),
			}
		}
		filter.Severity = s
	}

	start, err := getTimeParam(r, "startDate", "start")
	if err != nil {
		return filter, &models.APIError{Code: "VALIDATION_ERROR", Message: err.Error()}
	}
	end, err := getTimeParam(r, "endDate", "end")
	if err != nil {
		return filter, &models.APIError{Code: "VALIDATION_ERROR", Message: err.Error()}
	}
	filter.Start = start
	filter.End = end

	filter.Page, filter.PageSize = h.pageWindow(r)
	return filter, nil
}

// respondLogPage runs the query and writes the paginated envelope.
func (h *Handlers) respondLogPage(w http.ResponseWriter, r *http.Request, filter auditlog.Filter) {
	entries, total, err := h.store.Query(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to query access log", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"logs":       entries,
		"pagination": models.NewPagination(filter.Page, filter.PageSize, total),
	})
}
