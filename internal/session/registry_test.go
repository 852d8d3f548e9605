// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package session

import (
	"errors"
	"testing"
	"time"
)

func TestRegistryOpenGetClose(t *testing.T) {
	rec := &fakeRecorder{}
	reg := NewRegistry(slowConfig(), rec)

	m := reg.Open(testPrincipal(), "doc-1", "10.0.0.1", "agent")
	if reg.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", reg.Len())
	}

	got, err := reg.Get(m.ID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != m {
		t.Error("Get returned a different monitor")
	}

	if err := reg.Close(m.ID(), ReasonClose); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Removal runs on a detached goroutine.
	waitFor(t, func() bool { return reg.Len() == 0 })

	if _, err := reg.Get(m.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after close, got %v", err)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := NewRegistry(slowConfig(), &fakeRecorder{})

	if _, err := reg.Get("no-such-session"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := reg.Close("no-such-session", ReasonClose); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistryTimeoutRemovesSession(t *testing.T) {
	rec := &fakeRecorder{}
	reg := NewRegistry(fastConfig(), rec)

	reg.Open(testPrincipal(), "doc-1", "", "")

	// The idle timeout ends the session, which must drop it from the
	// registry without any API call.
	waitFor(t, func() bool { return reg.Len() == 0 })
}

func TestRegistryCloseAll(t *testing.T) {
	rec := &fakeRecorder{}
	reg := NewRegistry(slowConfig(), rec)

	for i := 0; i < 5; i++ {
		reg.Open(testPrincipal(), "doc-1", "", "")
	}
	if reg.Len() != 5 {
		t.Fatalf("expected 5 live sessions, got %d", reg.Len())
	}

	reg.CloseAll(ReasonShutdown)
	waitFor(t, func() bool { return reg.Len() == 0 })

	time.Sleep(20 * time.Millisecond)
	if got := rec.count("SESSION_END"); got != 5 {
		t.Errorf("expected 5 SESSION_END entries, got %d", got)
	}
}
