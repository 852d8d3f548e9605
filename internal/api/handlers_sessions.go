// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vaultview/vaultview/internal/auditlog"
	"github.com/vaultview/vaultview/internal/auth"
	"github.com/vaultview/vaultview/internal/docstore"
	"github.com/vaultview/vaultview/internal/logging"
	"github.com/vaultview/vaultview/internal/models"
	"github.com/vaultview/vaultview/internal/session"
	"github.com/vaultview/vaultview/internal/watermark"
)

// OpenSessionRequest opens a monitored viewing session on one document.
type OpenSessionRequest struct {
	DocumentID string `json:"documentId" validate:"required,max=256"`
}

// OpenSession handles POST /api/v1/sessions.
func (h *Handlers) OpenSession(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	var req OpenSessionRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	doc, err := h.docs.Resolve(r.Context(), req.DocumentID)
	if errors.Is(err, docstore.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "document not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to resolve document", err)
		return
	}

	m := h.registry.Open(*principal, doc.ID, r.RemoteAddr, r.UserAgent())
	snap := m.Snapshot()

	respondSuccess(w, http.StatusCreated, map[string]interface{}{
		"session":   snap,
		"document":  doc,
		"watermark": watermark.Build(*principal, doc.Title, snap),
	})
}

// GetSession handles GET /api/v1/sessions/{id}.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	m, ok := h.sessionForRequest(w, r)
	if !ok {
		return
	}
	respondSuccess(w, http.StatusOK, m.Snapshot())
}

// Interaction handles POST /api/v1/sessions/{id}/interaction, resetting the
// idle clock.
func (h *Handlers) Interaction(w http.ResponseWriter, r *http.Request) {
	m, ok := h.sessionForRequest(w, r)
	if !ok {
		return
	}

	if err := m.Interaction(); err != nil {
		respondError(w, http.StatusGone, "SESSION_EXPIRED", "session has ended", nil)
		return
	}
	respondSuccess(w, http.StatusOK, m.Snapshot())
}

// ViolationRequest reports one detected extraction attempt.
type ViolationRequest struct {
	Action string `json:"action" validate:"required"`
}

// Violation handles POST /api/v1/sessions/{id}/violations.
func (h *Handlers) Violation(w http.ResponseWriter, r *http.Request) {
	m, ok := h.sessionForRequest(w, r)
	if !ok {
		return
	}

	var req ViolationRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	result, err := m.Violation(auditlog.Action(req.Action))
	switch {
	case errors.Is(err, session.ErrNotViolation):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "action is not a violation: "+sanitizeLogValue(req.Action), nil)
		return
	case errors.Is(err, session.ErrSessionEnded):
		respondError(w, http.StatusGone, "SESSION_EXPIRED", "session has ended", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to record violation", err)
		return
	}

	respondSuccess(w, http.StatusOK, result)
}

// SetViewRequest carries page, zoom, or rotation changes. Absent fields are
// left untouched.
type SetViewRequest struct {
	Page            *int     `json:"page" validate:"omitempty,min=1"`
	ZoomScale       *float64 `json:"zoomScale" validate:"omitempty,gt=0"`
	RotationDegrees *int     `json:"rotationDegrees" validate:"omitempty,oneof=0 90 180 270"`
}

// SetView handles POST /api/v1/sessions/{id}/view.
func (h *Handlers) SetView(w http.ResponseWriter, r *http.Request) {
	m, ok := h.sessionForRequest(w, r)
	if !ok {
		return
	}

	var req SetViewRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	if err := m.SetView(req.Page, req.ZoomScale, req.RotationDegrees); err != nil {
		respondError(w, http.StatusGone, "SESSION_EXPIRED", "session has ended", nil)
		return
	}
	respondSuccess(w, http.StatusOK, m.Snapshot())
}

// Acknowledge handles POST /api/v1/sessions/{id}/acknowledge, clearing a
// critical lock.
func (h *Handlers) Acknowledge(w http.ResponseWriter, r *http.Request) {
	m, ok := h.sessionForRequest(w, r)
	if !ok {
		return
	}

	err := m.Acknowledge()
	switch {
	case errors.Is(err, session.ErrNotLocked):
		respondError(w, http.StatusConflict, "NOT_LOCKED", "session is not locked", nil)
		return
	case errors.Is(err, session.ErrSessionEnded):
		respondError(w, http.StatusGone, "SESSION_EXPIRED", "session has ended", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to acknowledge", err)
		return
	}

	respondSuccess(w, http.StatusOK, m.Snapshot())
}

// CloseSession handles DELETE /api/v1/sessions/{id}. Closing a session that
// is under a critical lock records the dismissal before ending, so the
// audit trail shows the warning was closed rather than acknowledged.
func (h *Handlers) CloseSession(w http.ResponseWriter, r *http.Request) {
	m, ok := h.sessionForRequest(w, r)
	if !ok {
		return
	}

	if err := m.ExitLocked(); err == nil {
		respondSuccess(w, http.StatusOK, map[string]string{"status": "closed"})
		return
	} else if errors.Is(err, session.ErrSessionEnded) {
		respondSuccess(w, http.StatusOK, map[string]string{"status": "closed"})
		return
	}

	m.Close(session.ReasonClose)
	respondSuccess(w, http.StatusOK, map[string]string{"status": "closed"})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origin enforcement is delegated to the bearer token check
	// that already gated this route.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Watch handles GET /api/v1/sessions/{id}/watch: a WebSocket pushing state
// change notifications until the session ends.
func (h *Handlers) Watch(w http.ResponseWriter, r *http.Request) {
	m, ok := h.sessionForRequest(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// Drain client frames so control messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for n := range m.Watch() {
		if err := conn.WriteJSON(n); err != nil {
			logging.Debug().Err(err).Str("session_id", m.ID()).Msg("WebSocket write failed")
			return
		}
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
}

// sessionForRequest resolves the {id} route parameter to a live monitor the
// caller may touch: its owner, or any operator. Writes its own error
// responses.
func (h *Handlers) sessionForRequest(w http.ResponseWriter, r *http.Request) (*session.Monitor, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return nil, false
	}

	id := chi.URLParam(r, "id")
	m, err := h.registry.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "session not found", nil)
		return nil, false
	}

	if m.Principal().ID != principal.ID && principal.Role != models.RoleOperator {
		respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "session belongs to another user", nil)
		return nil, false
	}

	return m, true
}
