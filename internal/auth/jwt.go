// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

// Package auth authenticates API requests and resolves them to a Principal.
//
// VaultView does not issue credentials itself: the document portal in front
// of it mints HS256 tokens with a shared secret, and this package validates
// them. Role semantics are deliberately small: "viewer" can run sessions and
// read their own activity, "operator" can additionally query the full access
// log.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vaultview/vaultview/internal/models"
)

// Claims are the JWT claims VaultView understands. Subject carries the
// user ID.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens with the shared HS256 secret.
type Verifier struct {
	secret  []byte
	timeout time.Duration
}

// NewVerifier creates a token verifier. The secret must be at least 32
// characters.
func NewVerifier(secret string, timeout time.Duration) (*Verifier, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 characters, got %d", len(secret))
	}
	if timeout <= 0 {
		timeout = 24 * time.Hour
	}
	return &Verifier{
		secret:  []byte(secret),
		timeout: timeout,
	}, nil
}

// GenerateToken signs a token for the given principal. Used by the local
// development mode and by tests; production tokens come from the portal.
func (v *Verifier) GenerateToken(p models.Principal) (string, error) {
	now := time.Now()
	claims := &Claims{
		Name:  p.DisplayName,
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(v.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature, algorithm, and time claims, then maps the
// claims to a Principal. Tokens without a recognized role are rejected.
func (v *Verifier) ValidateToken(tokenString string) (*models.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	if !models.IsValidRole(claims.Role) {
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}

	return &models.Principal{
		ID:          claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
		Role:        claims.Role,
	}, nil
}
