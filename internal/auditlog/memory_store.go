// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package auditlog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory storage.
// Suitable for development and testing. Data is lost on restart.
type MemoryStore struct {
	entries []Entry
	nextID  int64
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory access log store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Append persists an entry and returns the assigned id.
func (s *MemoryStore) Append(ctx context.Context, entry *Entry) (int64, error) {
	if err := normalize(entry); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, *entry)
	return entry.ID, nil
}

// Query retrieves entries matching the filter, newest first, plus the total
// count for the filter.
func (s *MemoryStore) Query(ctx context.Context, filter Filter) ([]Entry, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Collect in insertion (id ascending) order so the stable sort below
	// breaks timestamp ties deterministically.
	var matches []Entry
	for i := range s.entries {
		if matchesFilter(&s.entries[i], &filter) {
			matches = append(matches, s.entries[i])
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Timestamp.After(matches[j].Timestamp)
	})

	total := int64(len(matches))
	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		return matches, total, nil
	}

	start := (page - 1) * pageSize
	if start >= len(matches) {
		return []Entry{}, total, nil
	}
	end := start + pageSize
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], total, nil
}

// matchesFilter returns true if the entry satisfies every set filter field.
func matchesFilter(entry *Entry, filter *Filter) bool {
	if filter.UserID != "" && entry.UserID != filter.UserID {
		return false
	}
	if filter.DocumentID != "" && entry.DocumentID != filter.DocumentID {
		return false
	}
	if filter.Action != "" && entry.Action != filter.Action {
		return false
	}
	if filter.Severity != "" && entry.Severity != filter.Severity {
		return false
	}
	if filter.SessionID != "" && entry.SessionID != filter.SessionID {
		return false
	}
	if filter.Start != nil && entry.Timestamp.Before(*filter.Start) {
		return false
	}
	if filter.End != nil && entry.Timestamp.After(*filter.End) {
		return false
	}
	return true
}

// Stats aggregates counts over an optional date window.
func (s *MemoryStore) Stats(ctx context.Context, start, end *time.Time) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		ByAction:   make(map[string]int64),
		BySeverity: make(map[string]int64),
	}

	for i := range s.entries {
		entry := &s.entries[i]
		if start != nil && entry.Timestamp.Before(*start) {
			continue
		}
		if end != nil && entry.Timestamp.After(*end) {
			continue
		}
		stats.TotalLogs++
		stats.ByAction[string(entry.Action)]++
		stats.BySeverity[string(entry.Severity)]++
		if entry.Severity == SeverityWarning || entry.Severity == SeverityCritical {
			stats.SecurityEvents++
		}
	}

	return stats, nil
}

// DeleteExpired removes INFO entries older than cutoff. WARNING and CRITICAL
// entries survive regardless of age.
func (s *MemoryStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []Entry
	var deleted int64
	for i := range s.entries {
		entry := &s.entries[i]
		if entry.Severity == SeverityInfo && entry.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, *entry)
	}
	s.entries = kept
	return deleted, nil
}

// Len returns the number of entries in the store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes all entries (for testing).
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}
