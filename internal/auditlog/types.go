// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

// Package auditlog provides the append-only access log store.
// It records every access and security event of a viewing session for
// compliance review and forensic reconstruction.
package auditlog

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// Action categorizes access log entries. The set is closed: Append rejects
// anything not listed here.
type Action string

const (
	// Access events
	ActionViewDocument     Action = "VIEW_DOCUMENT"
	ActionDownloadDocument Action = "DOWNLOAD_DOCUMENT"

	// Violation events
	ActionAttemptCopy       Action = "ATTEMPT_COPY"
	ActionAttemptPrint      Action = "ATTEMPT_PRINT"
	ActionAttemptScreenshot Action = "ATTEMPT_SCREENSHOT"
	ActionAttemptDownload   Action = "ATTEMPT_DOWNLOAD"
	ActionSecurityWarning   Action = "SECURITY_WARNING"

	// Session lifecycle events
	ActionSessionStart   Action = "SESSION_START"
	ActionSessionEnd     Action = "SESSION_END"
	ActionIdleWarning    Action = "IDLE_WARNING"
	ActionSessionTimeout Action = "SESSION_TIMEOUT"

	// View state events
	ActionPageChange Action = "PAGE_CHANGE"
	ActionZoomChange Action = "ZOOM_CHANGE"
	ActionRotate     Action = "ROTATE"

	// Escalation acknowledgement events
	ActionAcknowledgedCriticalWarning Action = "ACKNOWLEDGED_CRITICAL_WARNING"
	ActionClosedCriticalWarning       Action = "CLOSED_CRITICAL_WARNING"
)

// Severity classifies an entry: INFO is routine, WARNING a suspicious single
// act, CRITICAL an escalated repeated violation.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// validActions is the closed action enumeration.
var validActions = map[Action]bool{
	ActionViewDocument:                true,
	ActionDownloadDocument:            true,
	ActionAttemptCopy:                 true,
	ActionAttemptPrint:                true,
	ActionAttemptScreenshot:           true,
	ActionAttemptDownload:             true,
	ActionSecurityWarning:             true,
	ActionSessionStart:                true,
	ActionSessionEnd:                  true,
	ActionIdleWarning:                 true,
	ActionSessionTimeout:              true,
	ActionPageChange:                  true,
	ActionZoomChange:                  true,
	ActionRotate:                      true,
	ActionAcknowledgedCriticalWarning: true,
	ActionClosedCriticalWarning:       true,
}

// violationActions are the actions that signal an extraction attempt.
var violationActions = map[Action]bool{
	ActionAttemptCopy:       true,
	ActionAttemptPrint:      true,
	ActionAttemptScreenshot: true,
	ActionAttemptDownload:   true,
	ActionSecurityWarning:   true,
}

// ValidAction reports whether a is in the closed action enumeration.
func ValidAction(a Action) bool {
	return validActions[a]
}

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s Severity) bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityCritical
}

// IsViolation reports whether the action signals an extraction attempt.
func IsViolation(a Action) bool {
	return violationActions[a]
}

// SeverityFor derives the default severity for an action: violation-class
// actions are WARNING, everything else INFO. The session monitor may raise a
// violation to CRITICAL when escalation demands it; the store never lowers a
// supplied severity.
func SeverityFor(a Action) Severity {
	if violationActions[a] {
		return SeverityWarning
	}
	return SeverityInfo
}

// Actions returns the closed action enumeration in a stable order.
func Actions() []Action {
	return []Action{
		ActionViewDocument,
		ActionDownloadDocument,
		ActionAttemptCopy,
		ActionAttemptPrint,
		ActionAttemptScreenshot,
		ActionAttemptDownload,
		ActionSecurityWarning,
		ActionSessionStart,
		ActionSessionEnd,
		ActionIdleWarning,
		ActionSessionTimeout,
		ActionPageChange,
		ActionZoomChange,
		ActionRotate,
		ActionAcknowledgedCriticalWarning,
		ActionClosedCriticalWarning,
	}
}

// Sentinel errors returned by Store implementations.
var (
	// ErrUnknownAction is returned when an entry carries an action outside
	// the closed enumeration.
	ErrUnknownAction = errors.New("unknown audit action")

	// ErrUnknownSeverity is returned when an entry carries a severity
	// outside the closed enumeration.
	ErrUnknownSeverity = errors.New("unknown audit severity")
)

// Entry is one immutable access log record. Entries are owned by the store
// from the moment of insertion; they are never updated, only inserted,
// queried, and bulk-deleted by the retention sweep.
type Entry struct {
	// ID is assigned by the store at insertion and reflects insertion order.
	ID int64 `json:"id"`

	// UserID is the principal the event belongs to.
	UserID string `json:"userId"`

	// DocumentID is the document being viewed.
	DocumentID string `json:"documentId"`

	// Action is drawn from the closed action enumeration.
	Action Action `json:"action"`

	// Severity is derived from Action at write time and never edited.
	Severity Severity `json:"severity"`

	// Metadata is an open key-value bag of forensic context (warning count,
	// zoom level, page, message shown to the user).
	Metadata json.RawMessage `json:"metadata,omitempty"`

	// IPAddress of the client.
	IPAddress string `json:"ipAddress,omitempty"`

	// UserAgent of the client.
	UserAgent string `json:"userAgent,omitempty"`

	// SessionID correlates all events from one viewing episode.
	SessionID string `json:"sessionId,omitempty"`

	// Timestamp of the event; stamped by the store if absent.
	Timestamp time.Time `json:"timestamp"`
}

// Filter defines the conjunctive query options for list queries.
// Zero values mean "no constraint".
type Filter struct {
	UserID     string
	DocumentID string
	Action     Action
	Severity   Severity
	SessionID  string
	Start      *time.Time
	End        *time.Time

	// Page is 1-based; PageSize bounds the result window.
	Page     int
	PageSize int
}

// Stats aggregates the store over an optional date window.
type Stats struct {
	TotalLogs int64 `json:"totalLogs"`

	// SecurityEvents counts entries whose severity is WARNING or CRITICAL.
	SecurityEvents int64 `json:"securityEvents"`

	ByAction   map[string]int64 `json:"byAction"`
	BySeverity map[string]int64 `json:"bySeverity"`
}

// Store is the append-only persistence interface for access log entries.
//
// List queries are ordered timestamp descending, ties broken by id ascending
// for determinism. Query returns the page alongside the total count for the
// filter.
type Store interface {
	// Append validates the action, derives severity if absent, stamps the
	// timestamp if absent, persists, and returns the assigned id.
	Append(ctx context.Context, entry *Entry) (int64, error)

	// Query retrieves entries matching the filter, newest first, with the
	// total count for the filter.
	Query(ctx context.Context, filter Filter) ([]Entry, int64, error)

	// Stats aggregates counts over an optional date window.
	Stats(ctx context.Context, start, end *time.Time) (*Stats, error)

	// DeleteExpired removes entries older than cutoff whose severity is
	// INFO. WARNING and CRITICAL entries are exempt: the violation trail
	// must survive the retention sweep.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// normalize validates the closed enumerations and fills the derived fields.
// Shared by all Store implementations.
func normalize(entry *Entry) error {
	if !ValidAction(entry.Action) {
		return ErrUnknownAction
	}
	if entry.Severity == "" {
		entry.Severity = SeverityFor(entry.Action)
	} else if !ValidSeverity(entry.Severity) {
		return ErrUnknownSeverity
	}
	// A supplied severity may raise but never lower the action's floor:
	// violation entries must stay WARNING or above to survive retention.
	if IsViolation(entry.Action) && entry.Severity == SeverityInfo {
		entry.Severity = SeverityWarning
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return nil
}
