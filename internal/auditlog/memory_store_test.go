// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package auditlog

import (
	"context"
	"errors"
	"testing"
	"time"
)

func mustAppend(t *testing.T, store Store, entry *Entry) int64 {
	t.Helper()
	id, err := store.Append(context.Background(), entry)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	return id
}

func TestMemoryStoreAppendAssignsSequentialIDs(t *testing.T) {
	store := NewMemoryStore()

	first := mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionViewDocument})
	second := mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionPageChange})

	if first != 1 || second != 2 {
		t.Errorf("expected IDs 1 and 2, got %d and %d", first, second)
	}
}

func TestMemoryStoreRejectsUnknownAction(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Append(context.Background(), &Entry{UserID: "u1", DocumentID: "d1", Action: "MADE_UP"})
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestMemoryStoreDerivesSeverity(t *testing.T) {
	store := NewMemoryStore()

	tests := []struct {
		action Action
		want   Severity
	}{
		{ActionViewDocument, SeverityInfo},
		{ActionSessionStart, SeverityInfo},
		{ActionAttemptCopy, SeverityWarning},
		{ActionAttemptScreenshot, SeverityWarning},
	}

	for _, tc := range tests {
		entry := &Entry{UserID: "u1", DocumentID: "d1", Action: tc.action}
		mustAppend(t, store, entry)
		if entry.Severity != tc.want {
			t.Errorf("action %s: expected severity %s, got %s", tc.action, tc.want, entry.Severity)
		}
	}
}

func TestMemoryStoreExplicitSeverityWins(t *testing.T) {
	store := NewMemoryStore()

	// Violations escalate to CRITICAL at the lock threshold even though the
	// action's default class is WARNING.
	entry := &Entry{UserID: "u1", DocumentID: "d1", Action: ActionAttemptCopy, Severity: SeverityCritical}
	mustAppend(t, store, entry)

	entries, _, err := store.Query(context.Background(), Filter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Severity != SeverityCritical {
		t.Errorf("expected one CRITICAL entry, got %+v", entries)
	}
}

func TestMemoryStoreSeverityCannotLowerViolationClass(t *testing.T) {
	store := NewMemoryStore()
	old := time.Now().UTC().Add(-91 * 24 * time.Hour)

	// A supplied INFO must not downgrade a violation action: that would make
	// the entry eligible for the retention sweep.
	entry := &Entry{UserID: "u1", DocumentID: "d1", Action: ActionAttemptCopy, Severity: SeverityInfo, Timestamp: old}
	mustAppend(t, store, entry)

	entries, _, err := store.Query(context.Background(), Filter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Severity != SeverityWarning {
		t.Fatalf("expected the entry clamped to WARNING, got %+v", entries)
	}

	deleted, err := store.DeleteExpired(context.Background(), time.Now().UTC().Add(-90*24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("retention sweep removed %d violation entries", deleted)
	}
	if store.Len() != 1 {
		t.Errorf("expected the violation entry to survive, store has %d", store.Len())
	}
}

func TestMemoryStoreQueryOrdering(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Insert out of chronological order.
	mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionViewDocument, Timestamp: base.Add(time.Minute)})
	mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionViewDocument, Timestamp: base.Add(3 * time.Minute)})
	mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionViewDocument, Timestamp: base.Add(2 * time.Minute)})

	entries, total, err := store.Query(context.Background(), Filter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}

	// Newest first.
	if entries[0].ID != 2 || entries[1].ID != 3 || entries[2].ID != 1 {
		t.Errorf("unexpected order: %d, %d, %d", entries[0].ID, entries[1].ID, entries[2].ID)
	}
}

func TestMemoryStoreQueryTimestampTieBreak(t *testing.T) {
	store := NewMemoryStore()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionViewDocument, Timestamp: ts})
	}

	entries, _, err := store.Query(context.Background(), Filter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	// Equal timestamps order by ID ascending for deterministic pages.
	if entries[0].ID != 1 || entries[1].ID != 2 || entries[2].ID != 3 {
		t.Errorf("tie-break order wrong: %d, %d, %d", entries[0].ID, entries[1].ID, entries[2].ID)
	}
}

func TestMemoryStoreQueryFiltersAreConjunctive(t *testing.T) {
	store := NewMemoryStore()

	mustAppend(t, store, &Entry{UserID: "alice", DocumentID: "d1", Action: ActionViewDocument, SessionID: "s1"})
	mustAppend(t, store, &Entry{UserID: "alice", DocumentID: "d2", Action: ActionAttemptCopy, SessionID: "s1"})
	mustAppend(t, store, &Entry{UserID: "bob", DocumentID: "d1", Action: ActionAttemptCopy, SessionID: "s2"})

	entries, total, err := store.Query(context.Background(), Filter{
		UserID:   "alice",
		Action:   ActionAttemptCopy,
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if total != 1 || len(entries) != 1 {
		t.Fatalf("expected exactly one match, got %d", total)
	}
	if entries[0].DocumentID != "d2" {
		t.Errorf("expected d2, got %s", entries[0].DocumentID)
	}
}

func TestMemoryStoreQueryDateWindow(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for day := 0; day < 5; day++ {
		mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionViewDocument, Timestamp: base.AddDate(0, 0, day)})
	}

	start := base.AddDate(0, 0, 1)
	end := base.AddDate(0, 0, 3)
	_, total, err := store.Query(context.Background(), Filter{Start: &start, End: &end, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	// Window is inclusive on both ends.
	if total != 3 {
		t.Errorf("expected 3 entries in window, got %d", total)
	}
}

func TestMemoryStoreQueryPagination(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionViewDocument, Timestamp: base.Add(time.Duration(i) * time.Second)})
	}

	entries, total, err := store.Query(context.Background(), Filter{Page: 3, PageSize: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if total != 25 {
		t.Errorf("expected total 25, got %d", total)
	}
	if len(entries) != 5 {
		t.Errorf("expected final page of 5, got %d", len(entries))
	}

	// Page past the end is empty, not an error.
	entries, total, err = store.Query(context.Background(), Filter{Page: 10, PageSize: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 0 || total != 25 {
		t.Errorf("expected empty page with total 25, got %d entries, total %d", len(entries), total)
	}
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore()

	mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionViewDocument})
	mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionAttemptCopy})
	mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionAttemptCopy, Severity: SeverityCritical})

	stats, err := store.Stats(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalLogs != 3 {
		t.Errorf("expected 3 total, got %d", stats.TotalLogs)
	}
	if stats.SecurityEvents != 2 {
		t.Errorf("expected 2 security events, got %d", stats.SecurityEvents)
	}
	if stats.ByAction[string(ActionAttemptCopy)] != 2 {
		t.Errorf("expected 2 ATTEMPT_COPY, got %d", stats.ByAction[string(ActionAttemptCopy)])
	}
	if stats.BySeverity[string(SeverityCritical)] != 1 {
		t.Errorf("expected 1 CRITICAL, got %d", stats.BySeverity[string(SeverityCritical)])
	}
}

func TestMemoryStoreDeleteExpiredOnlyInfo(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now().UTC()
	old := now.AddDate(0, 0, -91)
	recent := now.AddDate(0, 0, -30)

	mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionViewDocument, Timestamp: old})
	mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionViewDocument, Timestamp: recent})
	mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionAttemptCopy, Timestamp: old})
	mustAppend(t, store, &Entry{UserID: "u1", DocumentID: "d1", Action: ActionAttemptCopy, Severity: SeverityCritical, Timestamp: old})

	cutoff := now.AddDate(0, 0, -90)
	deleted, err := store.DeleteExpired(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	// WARNING and CRITICAL entries survive regardless of age; recent INFO
	// survives too.
	_, total, err := store.Query(context.Background(), Filter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 remaining, got %d", total)
	}
}

func TestSeverityForViolationClass(t *testing.T) {
	for _, action := range []Action{ActionAttemptCopy, ActionAttemptPrint, ActionAttemptScreenshot, ActionAttemptDownload, ActionSecurityWarning} {
		if !IsViolation(action) {
			t.Errorf("%s should be a violation", action)
		}
		if sev := SeverityFor(action); sev != SeverityWarning {
			t.Errorf("%s default severity: expected WARNING, got %s", action, sev)
		}
	}

	if IsViolation(ActionViewDocument) {
		t.Error("VIEW_DOCUMENT should not be a violation")
	}
}
