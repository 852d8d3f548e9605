// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package auditlog

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/vaultview/vaultview/internal/logging"
	"github.com/vaultview/vaultview/internal/metrics"
)

// RecorderConfig holds configuration for the asynchronous recorder.
type RecorderConfig struct {
	// BufferSize is the size of the async write buffer.
	BufferSize int `json:"buffer_size"`

	// WriteTimeout bounds a single store append.
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DefaultRecorderConfig returns sensible defaults.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		BufferSize:   1024,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder is the fire-and-forget write path into the access log store.
//
// Session monitors call Record and continue immediately: a failed or slow
// audit write must never block or break the viewing experience. Entries are
// drained by a single writer goroutine; when the buffer is full the entry is
// dropped with a logged warning. Store failures trip a circuit breaker so a
// dead store is not hammered once per second per session.
type Recorder struct {
	cfg     RecorderConfig
	store   Store
	breaker *gobreaker.CircuitBreaker[int64]

	entryChan chan *Entry
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewRecorder creates a recorder draining into the given store.
func NewRecorder(store Store, cfg RecorderConfig) *Recorder {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultRecorderConfig().BufferSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultRecorderConfig().WriteTimeout
	}

	r := &Recorder{
		cfg:   cfg,
		store: store,
		breaker: gobreaker.NewCircuitBreaker[int64](gobreaker.Settings{
			Name:    "audit-store",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Audit store circuit breaker state change")
			},
		}),
		entryChan: make(chan *Entry, cfg.BufferSize),
		stopChan:  make(chan struct{}),
	}

	r.wg.Add(1)
	go r.writer()

	return r
}

// Record enqueues an entry for asynchronous persistence. It never blocks:
// when the buffer is full the entry is dropped and the drop is logged.
func (r *Recorder) Record(entry *Entry) {
	select {
	case r.entryChan <- entry:
	default:
		metrics.AuditDroppedEntries.Inc()
		logging.Warn().
			Str("action", string(entry.Action)).
			Str("session_id", entry.SessionID).
			Msg("Audit write buffer full, dropping entry")
	}
}

// writer drains the buffer into the store.
func (r *Recorder) writer() {
	defer r.wg.Done()

	for {
		select {
		case <-r.stopChan:
			// Drain remaining entries before shutdown.
			for {
				select {
				case entry := <-r.entryChan:
					r.writeEntry(entry)
				default:
					return
				}
			}
		case entry := <-r.entryChan:
			r.writeEntry(entry)
		}
	}
}

// writeEntry persists one entry; failures are logged and swallowed.
func (r *Recorder) writeEntry(entry *Entry) {
	_, err := r.breaker.Execute(func() (int64, error) {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
		defer cancel()
		return r.store.Append(ctx, entry)
	})
	if err != nil {
		metrics.AuditAppendErrors.Inc()
		logging.Error().Err(err).
			Str("action", string(entry.Action)).
			Str("session_id", entry.SessionID).
			Msg("Failed to persist audit entry")
		return
	}
	metrics.AuditAppendsTotal.Inc()
}

// Close drains the buffer and stops the writer goroutine.
func (r *Recorder) Close() error {
	r.stopOnce.Do(func() {
		close(r.stopChan)
	})
	r.wg.Wait()
	return nil
}
