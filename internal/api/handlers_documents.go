// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vaultview/vaultview/internal/docstore"
	"github.com/vaultview/vaultview/internal/logging"
)

// PutDocumentRequest is the catalog upsert payload. The document ID comes
// from the URL.
type PutDocumentRequest struct {
	Title   string `json:"title" validate:"required,max=512"`
	Locator string `json:"locator" validate:"omitempty,max=1024"`
	Pages   int    `json:"pages" validate:"omitempty,min=0"`
}

// AdminListDocuments handles GET /api/v1/admin/documents.
func (h *Handlers) AdminListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to list catalog", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"total":     len(docs),
	})
}

// AdminPutDocument handles PUT /api/v1/admin/documents/{id}: create or
// update a catalog record.
func (h *Handlers) AdminPutDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "document ID is required", nil)
		return
	}

	var req PutDocumentRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	doc := &docstore.Document{
		ID:      id,
		Title:   req.Title,
		Locator: req.Locator,
		Pages:   req.Pages,
		AddedAt: time.Now().UTC(),
	}
	// Updates keep the original catalog entry date.
	if existing, err := h.docs.Resolve(r.Context(), id); err == nil {
		doc.AddedAt = existing.AddedAt
	}

	if err := h.docs.Put(r.Context(), doc); err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to store document", err)
		return
	}

	logging.Info().
		Str("document_id", sanitizeLogValue(id)).
		Str("title", sanitizeLogValue(req.Title)).
		Msg("Catalog document stored")

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"document": doc,
	})
}

// AdminDeleteDocument handles DELETE /api/v1/admin/documents/{id}. Removing
// a record does not touch sessions already open against it.
func (h *Handlers) AdminDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "document ID is required", nil)
		return
	}

	if _, err := h.docs.Resolve(r.Context(), id); errors.Is(err, docstore.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "document not found", nil)
		return
	} else if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to resolve document", err)
		return
	}

	if err := h.docs.Delete(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to delete document", err)
		return
	}

	logging.Info().Str("document_id", sanitizeLogValue(id)).Msg("Catalog document removed")

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"deleted": id,
	})
}
