// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

// Package retention prunes aged informational entries from the access log.
//
// Only INFO entries past the retention age are deleted. WARNING and CRITICAL
// entries are the security record and are kept indefinitely.
package retention

import (
	"context"
	"time"

	"github.com/vaultview/vaultview/internal/auditlog"
	"github.com/vaultview/vaultview/internal/logging"
	"github.com/vaultview/vaultview/internal/metrics"
)

// Store is the delete surface the sweeper needs from the access log store.
type Store interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config holds the sweep schedule.
type Config struct {
	// Interval between sweeps. Default: 168h (weekly).
	Interval time.Duration

	// Age is the retention age for INFO entries. Default: 90 days.
	Age time.Duration

	// InitialDelay before the first sweep after startup, so a crash-looping
	// process does not hammer the store. Default: 1m.
	InitialDelay time.Duration

	// SweepTimeout bounds one delete pass. Default: 5m.
	SweepTimeout time.Duration
}

// DefaultConfig returns the production sweep schedule.
func DefaultConfig() Config {
	return Config{
		Interval:     168 * time.Hour,
		Age:          90 * 24 * time.Hour,
		InitialDelay: time.Minute,
		SweepTimeout: 5 * time.Minute,
	}
}

// Sweeper periodically deletes expired INFO entries. It implements
// suture.Service and is intended to run under the supervision tree.
type Sweeper struct {
	cfg   Config
	store Store
}

// NewSweeper creates a sweeper over the given store.
func NewSweeper(cfg Config, store Store) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.Age <= 0 {
		cfg.Age = DefaultConfig().Age
	}
	if cfg.SweepTimeout <= 0 {
		cfg.SweepTimeout = DefaultConfig().SweepTimeout
	}
	return &Sweeper{cfg: cfg, store: store}
}

// Serve runs the sweep loop until the context is canceled. Store errors are
// logged and retried on the next interval; they never terminate the service.
func (s *Sweeper) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", s.cfg.Interval).
		Dur("age", s.cfg.Age).
		Msg("Retention sweeper started")

	if s.cfg.InitialDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.InitialDelay):
		}
	}

	s.Sweep(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Retention sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one delete pass and returns the number of entries removed.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	sweepCtx, cancel := context.WithTimeout(ctx, s.cfg.SweepTimeout)
	defer cancel()

	cutoff := time.Now().UTC().Add(-s.cfg.Age)

	deleted, err := s.store.DeleteExpired(sweepCtx, cutoff)
	if err != nil {
		metrics.RetentionSweepErrors.Inc()
		logging.Error().
			Err(err).
			Time("cutoff", cutoff).
			Msg("Retention sweep failed")
		return 0
	}

	metrics.RetentionDeletedTotal.Add(float64(deleted))
	logging.Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Str("severity", string(auditlog.SeverityInfo)).
		Msg("Retention sweep completed")

	return deleted
}

// String implements fmt.Stringer for supervisor logs.
func (s *Sweeper) String() string {
	return "retention-sweeper"
}
