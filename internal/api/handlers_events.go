// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/vaultview/vaultview/internal/auditlog"
	"github.com/vaultview/vaultview/internal/auth"
	"github.com/vaultview/vaultview/internal/logging"
)

// SubmitEventRequest is the direct event intake payload. The user identity
// always comes from the authenticated principal, never the body.
type SubmitEventRequest struct {
	DocumentID string                 `json:"documentId" validate:"required,max=256"`
	Action     string                 `json:"action" validate:"required"`
	Severity   string                 `json:"severity" validate:"omitempty,oneof=INFO WARNING CRITICAL"`
	SessionID  string                 `json:"sessionId" validate:"omitempty,max=64"`
	Metadata   map[string]interface{} `json:"metadata" validate:"omitempty"`
}

// SubmitEvent handles POST /api/v1/events. Unlike session-internal
// emissions, direct intake is synchronous: the caller learns whether the
// entry landed.
func (h *Handlers) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	var req SubmitEventRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	action := auditlog.Action(req.Action)
	if !auditlog.ValidAction(action) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown action "+sanitizeLogValue(req.Action), nil)
		return
	}

	var metadata json.RawMessage
	if req.Metadata != nil {
		raw, err := json.Marshal(req.Metadata)
		if err != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "metadata is not serializable", nil)
			return
		}
		metadata = raw
	}

	// An explicit severity overrides the action-derived one.
	entry := &auditlog.Entry{
		UserID:     principal.ID,
		DocumentID: req.DocumentID,
		Action:     action,
		Severity:   auditlog.Severity(req.Severity),
		Metadata:   metadata,
		IPAddress:  r.RemoteAddr,
		UserAgent:  r.UserAgent(),
		SessionID:  req.SessionID,
	}

	id, err := h.store.Append(r.Context(), entry)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to record event", err)
		return
	}

	logging.Debug().
		Int64("log_id", id).
		Str("user_id", principal.ID).
		Str("action", string(action)).
		Msg("Event recorded")

	respondSuccess(w, http.StatusCreated, map[string]interface{}{
		"logId":    id,
		"severity": entry.Severity,
	})
}
