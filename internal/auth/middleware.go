// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/vaultview/vaultview/internal/logging"
	"github.com/vaultview/vaultview/internal/models"
)

type contextKey string

// PrincipalContextKey carries the authenticated Principal in the request
// context.
const PrincipalContextKey contextKey = "principal"

// Middleware enforces authentication on API routes.
type Middleware struct {
	verifier *Verifier
	disabled bool
}

// NewMiddleware creates the auth middleware. With disabled set (local
// development only) every request runs as a static operator principal.
func NewMiddleware(verifier *Verifier, disabled bool) *Middleware {
	if disabled {
		logging.Warn().Msg("Authentication is DISABLED - all requests run as a local operator")
	}
	return &Middleware{verifier: verifier, disabled: disabled}
}

// Authenticate resolves the bearer token to a Principal, rejecting the
// request with 401 otherwise.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			ctx := context.WithValue(r.Context(), PrincipalContextKey, &models.Principal{
				ID:          "local-dev",
				DisplayName: "Local Developer",
				Role:        models.RoleOperator,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			unauthorized(w, "authentication required")
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			unauthorized(w, "authorization header must use the Bearer scheme")
			return
		}

		principal, err := m.verifier.ValidateToken(tokenString)
		if err != nil {
			logging.Debug().Err(err).Msg("Token validation failed")
			unauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireOperator rejects requests whose principal lacks the operator role.
// Must run after Authenticate.
func RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			unauthorized(w, "authentication required")
			return
		}
		if !principal.IsOperator() {
			respondError(w, http.StatusForbidden, "FORBIDDEN", "operator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PrincipalFromContext extracts the authenticated Principal set by
// Authenticate.
func PrincipalFromContext(ctx context.Context) (*models.Principal, bool) {
	principal, ok := ctx.Value(PrincipalContextKey).(*models.Principal)
	return principal, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}
