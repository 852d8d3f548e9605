// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package models

// Role constants define the two roles the access report surface recognizes.
// Authentication itself is the identity provider's job; the core only trusts
// the role claim it is handed.
const (
	// RoleViewer is the default role: may view documents and query own activity.
	RoleViewer = "viewer"

	// RoleOperator may query the full audit trail and aggregate statistics.
	RoleOperator = "operator"
)

// IsValidRole checks if a role name is recognized.
func IsValidRole(role string) bool {
	return role == RoleViewer || role == RoleOperator
}

// Principal is the authenticated identity a viewing session runs as.
// It is supplied by the identity provider and immutable for the lifetime
// of a session.
type Principal struct {
	// ID is the unique identifier from the identity provider.
	ID string `json:"id"`

	// DisplayName is the human-readable name shown in the watermark overlay.
	DisplayName string `json:"displayName"`

	// Email of the principal.
	Email string `json:"email"`

	// Role is either "viewer" or "operator".
	Role string `json:"role"`
}

// IsOperator reports whether the principal holds the operator role.
func (p *Principal) IsOperator() bool {
	return p.Role == RoleOperator
}
