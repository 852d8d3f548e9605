// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// resolverTest exercises the Resolver contract against any implementation.
func resolverTest(t *testing.T, store Resolver) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Resolve(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing document, got %v", err)
	}

	doc := &Document{
		ID:      "doc-1",
		Title:   "Board Minutes",
		Locator: "s3://vault/doc-1.pdf",
		Pages:   4,
		AddedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Put(ctx, doc); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Resolve(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Title != doc.Title || got.Locator != doc.Locator || got.Pages != doc.Pages {
		t.Errorf("resolved document does not match: %+v", got)
	}

	// Put is an upsert.
	doc.Title = "Board Minutes (Amended)"
	if err := store.Put(ctx, doc); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	got, err = store.Resolve(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Resolve after update failed: %v", err)
	}
	if got.Title != "Board Minutes (Amended)" {
		t.Errorf("update not applied, got %q", got.Title)
	}

	if err := store.Put(ctx, &Document{ID: "doc-2", Title: "Offer Letter"}); err != nil {
		t.Fatalf("Put doc-2 failed: %v", err)
	}
	docs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	if err := store.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Resolve(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting a missing document is not an error.
	if err := store.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("delete of missing document should be a no-op, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	resolverTest(t, NewMemoryStore())
}

func TestBadgerStore(t *testing.T) {
	opts := badger.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("failed to open badger: %v", err)
	}
	store := NewBadgerStore(db)
	t.Cleanup(func() { _ = store.Close() })

	resolverTest(t, store)
}

func TestPutValidatesDocument(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Put(ctx, &Document{Title: "No ID"}); err == nil {
		t.Error("expected error for document without ID")
	}
	if err := store.Put(ctx, &Document{ID: "doc-1"}); err == nil {
		t.Error("expected error for document without title")
	}
}
