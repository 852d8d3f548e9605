// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

// Package docstore resolves document IDs to their catalog records.
//
// VaultView does not ingest or serve document bytes; it maps the document ID
// a session names onto a catalog record (title, storage locator) so the
// viewer and the watermark overlay have something to display. The catalog is
// a small local Badger database maintained through the operator API.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no catalog record exists for a document ID.
var ErrNotFound = errors.New("document not found")

// Document is one catalog record.
type Document struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Locator string    `json:"locator"`
	Pages   int       `json:"pages"`
	AddedAt time.Time `json:"addedAt"`
}

// Validate checks the record for catalog insertion.
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if d.Title == "" {
		return fmt.Errorf("document title is required")
	}
	return nil
}

// Resolver looks up and maintains catalog records.
type Resolver interface {
	// Resolve returns the record for a document ID, or ErrNotFound.
	Resolve(ctx context.Context, id string) (*Document, error)

	// Put inserts or replaces a catalog record.
	Put(ctx context.Context, doc *Document) error

	// Delete removes a catalog record. Deleting an absent ID is not an
	// error.
	Delete(ctx context.Context, id string) error

	// List returns all catalog records.
	List(ctx context.Context) ([]*Document, error)
}
