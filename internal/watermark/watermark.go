// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

// Package watermark builds the identifying overlay payload the viewer
// renders over every page.
//
// The overlay is a deterrent, not DRM: it ties any photographed or captured
// page image back to the session that displayed it. The server only supplies
// the payload; rendering is the viewer's job.
package watermark

import (
	"time"

	"github.com/vaultview/vaultview/internal/models"
	"github.com/vaultview/vaultview/internal/session"
)

// Overlay is the payload the viewer repeats diagonally across each page.
type Overlay struct {
	SessionID     string    `json:"sessionId"`
	DisplayName   string    `json:"displayName"`
	Email         string    `json:"email"`
	DocumentTitle string    `json:"documentTitle"`
	IssuedAt      time.Time `json:"issuedAt"`
	Text          string    `json:"text"`
}

// Build assembles the overlay for a session viewing the named document.
func Build(p models.Principal, documentTitle string, snap session.Snapshot) Overlay {
	now := time.Now().UTC()

	text := p.DisplayName
	if p.Email != "" {
		text += " <" + p.Email + ">"
	}
	text += " • " + now.Format("2006-01-02 15:04 MST") + " • " + snap.SessionID

	return Overlay{
		SessionID:     snap.SessionID,
		DisplayName:   p.DisplayName,
		Email:         p.Email,
		DocumentTitle: documentTitle,
		IssuedAt:      now,
		Text:          text,
	}
}
