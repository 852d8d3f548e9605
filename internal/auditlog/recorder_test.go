// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package auditlog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// blockingStore blocks every Append until released.
type blockingStore struct {
	release chan struct{}
	mu      sync.Mutex
	count   int
}

func (s *blockingStore) Append(ctx context.Context, entry *Entry) (int64, error) {
	<-s.release
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	return int64(s.count), nil
}

func (s *blockingStore) Query(ctx context.Context, filter Filter) ([]Entry, int64, error) {
	return nil, 0, nil
}

func (s *blockingStore) Stats(ctx context.Context, start, end *time.Time) (*Stats, error) {
	return &Stats{}, nil
}

func (s *blockingStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// failingStore rejects every Append.
type failingStore struct {
	blockingStore
}

func (s *failingStore) Append(ctx context.Context, entry *Entry) (int64, error) {
	return 0, errors.New("store is down")
}

func TestRecorderPersistsAsync(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store, RecorderConfig{BufferSize: 16})
	defer rec.Close()

	rec.Record(&Entry{UserID: "u1", DocumentID: "d1", Action: ActionViewDocument})
	rec.Record(&Entry{UserID: "u1", DocumentID: "d1", Action: ActionSessionStart})

	// Allow the writer goroutine to drain.
	time.Sleep(100 * time.Millisecond)

	if store.Len() != 2 {
		t.Errorf("expected 2 persisted entries, got %d", store.Len())
	}
}

func TestRecorderNeverBlocksWhenFull(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	rec := NewRecorder(store, RecorderConfig{BufferSize: 2})

	done := make(chan struct{})
	go func() {
		// Far more entries than the buffer holds; the writer is stuck on
		// the blocked store, so most of these must be dropped, not queued.
		for i := 0; i < 100; i++ {
			rec.Record(&Entry{UserID: "u1", DocumentID: "d1", Action: ActionViewDocument})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full buffer")
	}

	close(store.release)
	_ = rec.Close()
}

func TestRecorderCloseDrainsBuffer(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store, RecorderConfig{BufferSize: 64})

	for i := 0; i < 20; i++ {
		rec.Record(&Entry{UserID: "u1", DocumentID: "d1", Action: ActionViewDocument})
	}

	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if store.Len() != 20 {
		t.Errorf("expected 20 persisted after Close, got %d", store.Len())
	}
}

func TestRecorderSwallowsStoreFailures(t *testing.T) {
	store := &failingStore{}
	rec := NewRecorder(store, RecorderConfig{BufferSize: 16})

	// Must not panic or block even though every write fails.
	for i := 0; i < 10; i++ {
		rec.Record(&Entry{UserID: "u1", DocumentID: "d1", Action: ActionAttemptCopy})
	}

	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
