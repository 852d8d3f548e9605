// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

// Package metrics provides Prometheus instrumentation for:
//   - Viewing session lifecycle and violation escalation
//   - Audit write path throughput and loss
//   - Retention sweeps
//   - API endpoint latency and throughput
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vaultview_active_sessions",
			Help: "Current number of live viewing sessions",
		},
	)

	SessionsOpenedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vaultview_sessions_opened_total",
			Help: "Total number of viewing sessions opened",
		},
	)

	SessionsEndedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultview_sessions_ended_total",
			Help: "Total number of viewing sessions ended, by exit reason",
		},
		[]string{"reason"}, // "close", "timeout", "exit", "shutdown"
	)

	ViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultview_violations_total",
			Help: "Total number of detected violation attempts, by action",
		},
		[]string{"action"},
	)

	CriticalLocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vaultview_critical_locks_total",
			Help: "Total number of sessions locked by escalation",
		},
	)

	// Audit write path metrics
	AuditAppendsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vaultview_audit_appends_total",
			Help: "Total number of audit entries persisted",
		},
	)

	AuditAppendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vaultview_audit_append_errors_total",
			Help: "Total number of failed audit store writes",
		},
	)

	AuditDroppedEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vaultview_audit_dropped_entries_total",
			Help: "Total number of audit entries dropped due to a full buffer",
		},
	)

	// Retention metrics
	RetentionDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vaultview_retention_deleted_total",
			Help: "Total number of audit entries removed by the retention sweep",
		},
	)

	RetentionSweepErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vaultview_retention_sweep_errors_total",
			Help: "Total number of failed retention sweep runs",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultview_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vaultview_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, path string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
