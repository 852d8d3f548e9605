// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

// Package session implements the per-viewing-session security monitor.
//
// A Monitor owns the state of one viewing episode: idle and duration timing,
// violation escalation, and forced termination. Every user interaction and
// every detected violation becomes an access log entry; the monitor itself
// never reads the store back, it consults only its own in-memory timers and
// counters.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vaultview/vaultview/internal/auditlog"
	"github.com/vaultview/vaultview/internal/logging"
	"github.com/vaultview/vaultview/internal/metrics"
	"github.com/vaultview/vaultview/internal/models"
)

// State of the idle state machine. CRITICAL_LOCKED is not a State: it is an
// orthogonal overlay driven by the warning count, reported via Locked.
type State string

const (
	// StateActive is the normal viewing state.
	StateActive State = "ACTIVE"

	// StateIdleWarned means the idle warning threshold passed and the user
	// sees a countdown. Any interaction returns the session to ACTIVE.
	StateIdleWarned State = "IDLE_WARNED"

	// StateExpired is terminal: the idle timeout passed and the session
	// was force-ended.
	StateExpired State = "EXPIRED"
)

// Exit reasons recorded with the final SESSION_END entry.
const (
	ReasonClose    = "close"
	ReasonTimeout  = "timeout"
	ReasonExit     = "exit"
	ReasonShutdown = "shutdown"
)

// Sentinel errors.
var (
	// ErrSessionEnded is returned by all mutating calls after the session
	// has ended.
	ErrSessionEnded = errors.New("session has ended")

	// ErrNotLocked is returned by Acknowledge when no critical lock is active.
	ErrNotLocked = errors.New("session is not locked")

	// ErrNotViolation is returned when a reported violation action is not
	// in the violation class.
	ErrNotViolation = errors.New("action is not a violation")
)

// ViewState is the informational page/zoom/rotation state attached to every
// log entry for forensic context.
type ViewState struct {
	Page            int     `json:"page"`
	ZoomScale       float64 `json:"zoomScale"`
	RotationDegrees int     `json:"rotationDegrees"`
}

// Config holds the monitor timing configuration. TickInterval exists so
// tests can run the state machine at millisecond speed.
type Config struct {
	// TickInterval is the period of the duration and idle counters.
	// Default: 1s.
	TickInterval time.Duration `json:"tick_interval"`

	// IdleWarning is the idle duration after which the user is warned.
	// Default: 13m.
	IdleWarning time.Duration `json:"idle_warning"`

	// IdleTimeout is the idle duration after which the session is
	// force-ended. Default: 15m.
	IdleTimeout time.Duration `json:"idle_timeout"`

	// NotifyBuffer is the capacity of the state change channel consumed by
	// the presentation push path. Default: 16.
	NotifyBuffer int `json:"notify_buffer"`
}

// DefaultConfig returns the production timing thresholds.
func DefaultConfig() Config {
	return Config{
		TickInterval: time.Second,
		IdleWarning:  13 * time.Minute,
		IdleTimeout:  15 * time.Minute,
		NotifyBuffer: 16,
	}
}

// Recorder is the fire-and-forget audit write path the monitor emits into.
// Satisfied by *auditlog.Recorder.
type Recorder interface {
	Record(entry *auditlog.Entry)
}

// Notification kinds pushed to the presentation layer.
const (
	NotifyIdleWarning  = "idle_warning"
	NotifyResumed      = "resumed"
	NotifyViolation    = "violation"
	NotifyAcknowledged = "acknowledged"
	NotifyExpired      = "expired"
	NotifyEnded        = "ended"
)

// Notification is one state change pushed to the presentation layer.
type Notification struct {
	Kind          string  `json:"kind"`
	State         State   `json:"state"`
	Locked        bool    `json:"locked"`
	WarningCount  int     `json:"warningCount"`
	Message       string  `json:"message,omitempty"`
	IdleRemaining float64 `json:"idleRemainingSeconds,omitempty"`
}

// Snapshot is a point-in-time view of a monitor for polling clients.
type Snapshot struct {
	SessionID        string           `json:"sessionId"`
	Principal        models.Principal `json:"principal"`
	DocumentID       string           `json:"documentId"`
	State            State            `json:"state"`
	Locked           bool             `json:"locked"`
	WarningCount     int              `json:"warningCount"`
	View             ViewState        `json:"view"`
	StartedAt        time.Time        `json:"startedAt"`
	ActiveSeconds    int64            `json:"activeSeconds"`
	IdleMilliseconds int64            `json:"idleMilliseconds"`
}

// ViolationResult is returned to the caller so the presentation layer can
// render the escalation message and lock state.
type ViolationResult struct {
	WarningCount int               `json:"warningCount"`
	Severity     auditlog.Severity `json:"severity"`
	Message      string            `json:"message"`
	Locked       bool              `json:"locked"`
}

// Monitor is the state machine for one viewing session. All methods are safe
// for concurrent use. The two counters (duration, idle) are driven by a
// single ticker goroutine; emission to the store is fire-and-forget and never
// blocks a tick.
type Monitor struct {
	id         string
	principal  models.Principal
	documentID string
	ipAddress  string
	userAgent  string
	cfg        Config
	rec        Recorder
	onEnd      func(m *Monitor, reason string)

	mu           sync.Mutex
	state        State
	locked       bool
	warningCount int
	view         ViewState
	startedAt    time.Time
	activeTicks  int64
	idleTicks    int64
	idleWarned   bool
	ended        bool
	endOnce      sync.Once
	done         chan struct{}
	notifyCh     chan Notification
}

// Open creates a monitor, emits SESSION_START, and starts the tick loop.
// onEnd is invoked exactly once after the final SESSION_END emission; it may
// be nil.
func Open(principal models.Principal, documentID, ipAddress, userAgent string, cfg Config, rec Recorder, onEnd func(m *Monitor, reason string)) *Monitor {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if cfg.IdleWarning <= 0 {
		cfg.IdleWarning = DefaultConfig().IdleWarning
	}
	if cfg.IdleTimeout <= cfg.IdleWarning {
		cfg.IdleTimeout = cfg.IdleWarning + 2*time.Minute
	}
	if cfg.NotifyBuffer <= 0 {
		cfg.NotifyBuffer = DefaultConfig().NotifyBuffer
	}

	m := &Monitor{
		id:         uuid.New().String(),
		principal:  principal,
		documentID: documentID,
		ipAddress:  ipAddress,
		userAgent:  userAgent,
		cfg:        cfg,
		rec:        rec,
		onEnd:      onEnd,
		state:      StateActive,
		view:       ViewState{Page: 1, ZoomScale: 1.0},
		startedAt:  time.Now().UTC(),
		done:       make(chan struct{}),
		notifyCh:   make(chan Notification, cfg.NotifyBuffer),
	}

	m.emit(auditlog.ActionSessionStart, auditlog.SeverityInfo, nil)
	metrics.SessionsOpenedTotal.Inc()

	go m.run()

	return m
}

// run drives the duration and idle counters until the session ends.
func (m *Monitor) run() {
	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick advances both counters by one interval and applies the idle
// transitions.
func (m *Monitor) tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return
	}

	m.activeTicks++
	m.idleTicks++

	idle := time.Duration(m.idleTicks) * m.cfg.TickInterval

	if !m.idleWarned && idle >= m.cfg.IdleWarning && idle < m.cfg.IdleTimeout {
		m.idleWarned = true
		m.state = StateIdleWarned
		remaining := m.cfg.IdleTimeout - idle
		m.emit(auditlog.ActionIdleWarning, auditlog.SeverityInfo, map[string]interface{}{
			"idle_seconds":      idle.Seconds(),
			"remaining_seconds": remaining.Seconds(),
		})
		m.notify(Notification{
			Kind:          NotifyIdleWarning,
			State:         m.state,
			Locked:        m.locked,
			WarningCount:  m.warningCount,
			IdleRemaining: remaining.Seconds(),
		})
	}

	if idle >= m.cfg.IdleTimeout {
		m.state = StateExpired
		m.emit(auditlog.ActionSessionTimeout, auditlog.SeverityInfo, map[string]interface{}{
			"idle_seconds": idle.Seconds(),
		})
		m.notify(Notification{
			Kind:         NotifyExpired,
			State:        m.state,
			Locked:       m.locked,
			WarningCount: m.warningCount,
		})
		m.endLocked(ReasonTimeout)
	}
}

// Interaction records a user interaction (pointer move, key press, click),
// resetting the idle counter. Automated events must not call this.
func (m *Monitor) Interaction() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return ErrSessionEnded
	}

	m.idleTicks = 0
	if m.idleWarned {
		m.idleWarned = false
		m.state = StateActive
		m.notify(Notification{
			Kind:         NotifyResumed,
			State:        m.state,
			Locked:       m.locked,
			WarningCount: m.warningCount,
		})
	}
	return nil
}

// Violation records a detected extraction attempt. The Nth violation raises
// the warning count to exactly N; counts 1 and 2 classify as WARNING, 3 and
// above as CRITICAL, which also locks the interaction layer until
// Acknowledge or ExitLocked.
func (m *Monitor) Violation(action auditlog.Action) (*ViolationResult, error) {
	if !auditlog.IsViolation(action) {
		return nil, ErrNotViolation
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return nil, ErrSessionEnded
	}

	m.warningCount++
	severity, message := Escalate(m.warningCount)

	if m.warningCount >= LockThreshold && !m.locked {
		m.locked = true
		metrics.CriticalLocksTotal.Inc()
	}

	// A violation is itself a user interaction.
	m.idleTicks = 0
	if m.idleWarned {
		m.idleWarned = false
		m.state = StateActive
	}

	m.emit(action, severity, map[string]interface{}{
		"warning_count": m.warningCount,
		"message":       message,
	})
	metrics.ViolationsTotal.WithLabelValues(string(action)).Inc()

	m.notify(Notification{
		Kind:         NotifyViolation,
		State:        m.state,
		Locked:       m.locked,
		WarningCount: m.warningCount,
		Message:      message,
	})

	return &ViolationResult{
		WarningCount: m.warningCount,
		Severity:     severity,
		Message:      message,
		Locked:       m.locked,
	}, nil
}

// Acknowledge clears a critical lock. The reset itself is logged; a
// subsequent violation escalates from 1 again.
func (m *Monitor) Acknowledge() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return ErrSessionEnded
	}
	if !m.locked {
		return ErrNotLocked
	}

	m.locked = false
	previous := m.warningCount
	m.warningCount = 0

	m.emit(auditlog.ActionAcknowledgedCriticalWarning, auditlog.SeverityInfo, map[string]interface{}{
		"previous_warning_count": previous,
	})
	m.notify(Notification{
		Kind:   NotifyAcknowledged,
		State:  m.state,
		Locked: false,
	})
	return nil
}

// ExitLocked is the "exit" path out of a critical lock: it logs
// CLOSED_CRITICAL_WARNING and ends the session.
func (m *Monitor) ExitLocked() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return ErrSessionEnded
	}
	if !m.locked {
		return ErrNotLocked
	}

	m.emit(auditlog.ActionClosedCriticalWarning, auditlog.SeverityInfo, map[string]interface{}{
		"warning_count": m.warningCount,
	})
	m.endLocked(ReasonExit)
	return nil
}

// SetView records a page, zoom, or rotation change. View changes are
// informational: they emit an entry with old and new values but do not touch
// the idle or warning state.
func (m *Monitor) SetView(page *int, zoomScale *float64, rotationDegrees *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return ErrSessionEnded
	}

	if page != nil && *page != m.view.Page {
		m.emit(auditlog.ActionPageChange, auditlog.SeverityInfo, map[string]interface{}{
			"from_page": m.view.Page,
			"to_page":   *page,
		})
		m.view.Page = *page
	}
	if zoomScale != nil && *zoomScale != m.view.ZoomScale {
		m.emit(auditlog.ActionZoomChange, auditlog.SeverityInfo, map[string]interface{}{
			"from_zoom": m.view.ZoomScale,
			"to_zoom":   *zoomScale,
		})
		m.view.ZoomScale = *zoomScale
	}
	if rotationDegrees != nil && *rotationDegrees != m.view.RotationDegrees {
		m.emit(auditlog.ActionRotate, auditlog.SeverityInfo, map[string]interface{}{
			"from_rotation": m.view.RotationDegrees,
			"to_rotation":   *rotationDegrees,
		})
		m.view.RotationDegrees = *rotationDegrees
	}
	return nil
}

// Close ends the session. It is reachable from every state, idempotent, and
// the only guaranteed cleanup path: explicit close, navigation-away, and
// process shutdown all land here.
func (m *Monitor) Close(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endLocked(reason)
}

// endLocked performs the one-time teardown: final SESSION_END emission,
// ticker stop, notification channel close. Must be called with mu held.
func (m *Monitor) endLocked(reason string) {
	m.endOnce.Do(func() {
		m.ended = true

		duration := time.Since(m.startedAt)
		m.emit(auditlog.ActionSessionEnd, auditlog.SeverityInfo, map[string]interface{}{
			"duration_seconds": int64(duration.Seconds()),
			"warning_count":    m.warningCount,
			"reason":           reason,
		})
		metrics.SessionsEndedTotal.WithLabelValues(reason).Inc()

		close(m.done)

		m.notify(Notification{
			Kind:         NotifyEnded,
			State:        m.state,
			Locked:       m.locked,
			WarningCount: m.warningCount,
		})
		close(m.notifyCh)

		logging.Info().
			Str("session_id", m.id).
			Str("user_id", m.principal.ID).
			Str("document_id", m.documentID).
			Str("reason", reason).
			Int64("duration_seconds", int64(duration.Seconds())).
			Int("warning_count", m.warningCount).
			Msg("Viewing session ended")

		if m.onEnd != nil {
			// Detached so registry bookkeeping never deadlocks against
			// a caller already holding the registry lock.
			go m.onEnd(m, reason)
		}
	})
}

// emit builds and records one access log entry carrying the session's
// forensic context. Must be called with mu held. Record never blocks.
func (m *Monitor) emit(action auditlog.Action, severity auditlog.Severity, extra map[string]interface{}) {
	if m.rec == nil {
		return
	}

	meta := map[string]interface{}{
		"page":             m.view.Page,
		"zoom_scale":       m.view.ZoomScale,
		"rotation_degrees": m.view.RotationDegrees,
		"active_seconds":   m.activeSecondsLocked(),
	}
	for k, v := range extra {
		meta[k] = v
	}

	raw, err := json.Marshal(meta)
	if err != nil {
		raw = []byte("{}")
	}

	m.rec.Record(&auditlog.Entry{
		UserID:     m.principal.ID,
		DocumentID: m.documentID,
		Action:     action,
		Severity:   severity,
		Metadata:   raw,
		IPAddress:  m.ipAddress,
		UserAgent:  m.userAgent,
		SessionID:  m.id,
		Timestamp:  time.Now().UTC(),
	})
}

// activeSecondsLocked converts duration ticks to whole seconds.
func (m *Monitor) activeSecondsLocked() int64 {
	return int64(float64(m.activeTicks) * m.cfg.TickInterval.Seconds())
}

// ID returns the opaque session token correlating all entries of this
// viewing episode.
func (m *Monitor) ID() string {
	return m.id
}

// Principal returns the identity the session runs as.
func (m *Monitor) Principal() models.Principal {
	return m.principal
}

// DocumentID returns the document under view.
func (m *Monitor) DocumentID() string {
	return m.documentID
}

// Watch returns the state change channel. It is closed when the session
// ends.
func (m *Monitor) Watch() <-chan Notification {
	return m.notifyCh
}

// Ended reports whether the session has ended.
func (m *Monitor) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ended
}

// Snapshot returns a point-in-time view of the session state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		SessionID:        m.id,
		Principal:        m.principal,
		DocumentID:       m.documentID,
		State:            m.state,
		Locked:           m.locked,
		WarningCount:     m.warningCount,
		View:             m.view,
		StartedAt:        m.startedAt,
		ActiveSeconds:    m.activeSecondsLocked(),
		IdleMilliseconds: int64(time.Duration(m.idleTicks) * m.cfg.TickInterval / time.Millisecond),
	}
}

// notify pushes a state change without ever blocking the state machine.
// Must be called with mu held, before notifyCh is closed.
func (m *Monitor) notify(n Notification) {
	select {
	case m.notifyCh <- n:
	default:
	}
}
