// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package session

import (
	"errors"
	"sync"

	"github.com/vaultview/vaultview/internal/logging"
	"github.com/vaultview/vaultview/internal/metrics"
	"github.com/vaultview/vaultview/internal/models"
)

// ErrSessionNotFound is returned by Get and Close for unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Registry tracks all live monitors by session ID. A monitor removes itself
// when it ends, regardless of which path ended it.
type Registry struct {
	cfg Config
	rec Recorder

	mu       sync.RWMutex
	sessions map[string]*Monitor
}

// NewRegistry creates an empty registry. All monitors opened through it
// share the given timing configuration and audit write path.
func NewRegistry(cfg Config, rec Recorder) *Registry {
	return &Registry{
		cfg:      cfg,
		rec:      rec,
		sessions: make(map[string]*Monitor),
	}
}

// Open starts a new monitored viewing session and registers it.
func (r *Registry) Open(principal models.Principal, documentID, ipAddress, userAgent string) *Monitor {
	m := Open(principal, documentID, ipAddress, userAgent, r.cfg, r.rec, r.remove)

	r.mu.Lock()
	r.sessions[m.ID()] = m
	r.mu.Unlock()

	metrics.ActiveSessions.Inc()
	logging.Info().
		Str("session_id", m.ID()).
		Str("user_id", principal.ID).
		Str("document_id", documentID).
		Msg("Viewing session opened")

	return m
}

// Get returns the live monitor for a session ID.
func (r *Registry) Get(id string) (*Monitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return m, nil
}

// Close ends the identified session with the given reason.
func (r *Registry) Close(id, reason string) error {
	m, err := r.Get(id)
	if err != nil {
		return err
	}
	m.Close(reason)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll ends every live session, used on process shutdown.
func (r *Registry) CloseAll(reason string) {
	r.mu.RLock()
	monitors := make([]*Monitor, 0, len(r.sessions))
	for _, m := range r.sessions {
		monitors = append(monitors, m)
	}
	r.mu.RUnlock()

	for _, m := range monitors {
		m.Close(reason)
	}
}

// remove is the monitor end callback. It runs on a detached goroutine, so
// taking the registry lock here is safe.
func (r *Registry) remove(m *Monitor, reason string) {
	r.mu.Lock()
	_, ok := r.sessions[m.ID()]
	delete(r.sessions, m.ID())
	r.mu.Unlock()

	if ok {
		metrics.ActiveSessions.Dec()
	}
}
