// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/vaultview/vaultview/internal/models"
)

const testSecret = "test-secret-at-least-32-characters-long"

func TestNewVerifierRejectsShortSecret(t *testing.T) {
	if _, err := NewVerifier("too-short", time.Hour); err == nil {
		t.Error("expected error for short secret")
	}
	if _, err := NewVerifier(testSecret, time.Hour); err != nil {
		t.Errorf("expected 32+ character secret to be accepted: %v", err)
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	v, err := NewVerifier(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewVerifier failed: %v", err)
	}

	original := models.Principal{
		ID:          "alice",
		DisplayName: "Alice Li",
		Email:       "alice@example.com",
		Role:        models.RoleOperator,
	}

	token, err := v.GenerateToken(original)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	principal, err := v.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if *principal != original {
		t.Errorf("round trip changed the principal: %+v != %+v", principal, original)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	signer, _ := NewVerifier(testSecret, time.Hour)
	other, _ := NewVerifier("another-secret-also-32-characters-long!", time.Hour)

	token, err := signer.GenerateToken(models.Principal{ID: "alice", Role: models.RoleViewer})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("expected validation failure with a different secret")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	v, _ := NewVerifier(testSecret, time.Nanosecond)

	token, err := v.GenerateToken(models.Principal{ID: "alice", Role: models.RoleViewer})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := v.ValidateToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestValidateTokenRejectsUnknownRole(t *testing.T) {
	v, _ := NewVerifier(testSecret, time.Hour)

	token, err := v.GenerateToken(models.Principal{ID: "alice", Role: "superuser"})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	_, err = v.ValidateToken(token)
	if err == nil || !strings.Contains(err.Error(), "role") {
		t.Errorf("expected role rejection, got %v", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	v, _ := NewVerifier(testSecret, time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := v.ValidateToken(token); err == nil {
			t.Errorf("expected %q to be rejected", token)
		}
	}
}
