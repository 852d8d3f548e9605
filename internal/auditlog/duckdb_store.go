// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package auditlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vaultview/vaultview/internal/logging"
)

// DuckDBStore implements Store using DuckDB for persistent storage.
// This is the production backend for the audit trail.
type DuckDBStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewDuckDBStore creates a new DuckDB-backed access log store.
// Call CreateTable before first use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the access_log table and its indexes if absent.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	schema := `
		CREATE SEQUENCE IF NOT EXISTS access_log_id_seq;

		CREATE TABLE IF NOT EXISTS access_log (
			id BIGINT PRIMARY KEY DEFAULT nextval('access_log_id_seq'),
			user_id TEXT NOT NULL,
			document_id TEXT NOT NULL,
			action TEXT NOT NULL,
			severity TEXT NOT NULL,
			metadata JSON,
			ip_address TEXT,
			user_agent TEXT,
			session_id TEXT,
			timestamp TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_access_log_timestamp ON access_log(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_access_log_user_id ON access_log(user_id);
		CREATE INDEX IF NOT EXISTS idx_access_log_document_id ON access_log(document_id);
		CREATE INDEX IF NOT EXISTS idx_access_log_action ON access_log(action);
		CREATE INDEX IF NOT EXISTS idx_access_log_severity ON access_log(severity);
		CREATE INDEX IF NOT EXISTS idx_access_log_session_id ON access_log(session_id);
	`

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Info().Msg("Access log table created/verified")
	return nil
}

// Append persists an entry and returns the id assigned by the sequence.
func (s *DuckDBStore) Append(ctx context.Context, entry *Entry) (int64, error) {
	if err := normalize(entry); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO access_log (
			user_id, document_id, action, severity, metadata,
			ip_address, user_agent, session_id, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	var metadata *string
	if len(entry.Metadata) > 0 {
		m := string(entry.Metadata)
		metadata = &m
	}

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		entry.UserID,
		entry.DocumentID,
		string(entry.Action),
		string(entry.Severity),
		metadata,
		entry.IPAddress,
		entry.UserAgent,
		entry.SessionID,
		entry.Timestamp,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append access log entry: %w", err)
	}

	entry.ID = id
	return id, nil
}

// Query retrieves entries matching the filter, newest first, plus the total
// count for the filter.
func (s *DuckDBStore) Query(ctx context.Context, filter Filter) ([]Entry, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conditions, args := buildFilterConditions(filter)
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM access_log" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count access log entries: %w", err)
	}

	query := `
		SELECT id, user_id, document_id, action, severity,
			CAST(metadata AS VARCHAR) AS metadata,
			ip_address, user_agent, session_id, timestamp
		FROM access_log
	` + where + " ORDER BY timestamp DESC, id ASC"

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query access log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to scan access log row")
			continue
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating access log rows: %w", err)
	}

	return entries, total, nil
}

// buildFilterConditions translates a Filter into WHERE clauses.
func buildFilterConditions(filter Filter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	appendCond := func(column, value string) {
		if value != "" {
			conditions = append(conditions, column+" = ?")
			args = append(args, value)
		}
	}

	appendCond("user_id", filter.UserID)
	appendCond("document_id", filter.DocumentID)
	appendCond("action", string(filter.Action))
	appendCond("severity", string(filter.Severity))
	appendCond("session_id", filter.SessionID)

	if filter.Start != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *filter.Start)
	}
	if filter.End != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *filter.End)
	}

	return conditions, args
}

// scanEntry scans one row into an Entry.
func scanEntry(rows *sql.Rows) (*Entry, error) {
	var entry Entry
	var action, severity string
	var metadata, ipAddress, userAgent, sessionID sql.NullString

	err := rows.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.DocumentID,
		&action,
		&severity,
		&metadata,
		&ipAddress,
		&userAgent,
		&sessionID,
		&entry.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	entry.Action = Action(action)
	entry.Severity = Severity(severity)
	if metadata.Valid && metadata.String != "" {
		entry.Metadata = []byte(metadata.String)
	}
	entry.IPAddress = ipAddress.String
	entry.UserAgent = userAgent.String
	entry.SessionID = sessionID.String

	return &entry, nil
}

// Stats aggregates counts over an optional date window.
func (s *DuckDBStore) Stats(ctx context.Context, start, end *time.Time) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conditions []string
	var args []interface{}
	if start != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *start)
	}
	if end != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *end)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	stats := &Stats{
		ByAction:   make(map[string]int64),
		BySeverity: make(map[string]int64),
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM access_log"+where, args...).Scan(&stats.TotalLogs); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	byAction, err := s.countByColumn(ctx, "action", where, args)
	if err != nil {
		return nil, err
	}
	stats.ByAction = byAction

	bySeverity, err := s.countByColumn(ctx, "severity", where, args)
	if err != nil {
		return nil, err
	}
	stats.BySeverity = bySeverity

	stats.SecurityEvents = bySeverity[string(SeverityWarning)] + bySeverity[string(SeverityCritical)]

	return stats, nil
}

// countByColumn executes a GROUP BY query and returns counts per value.
func (s *DuckDBStore) countByColumn(ctx context.Context, column, where string, args []interface{}) (map[string]int64, error) {
	result := make(map[string]int64)
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM access_log%s GROUP BY %s", column, where, column)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s counts: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err == nil {
			result[key] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s counts: %w", column, err)
	}
	return result, nil
}

// DeleteExpired removes INFO entries older than cutoff. WARNING and CRITICAL
// entries are exempt regardless of age.
func (s *DuckDBStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `DELETE FROM access_log WHERE timestamp < ? AND severity = ?`

	result, err := s.db.ExecContext(ctx, query, cutoff, string(SeverityInfo))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired access log entries: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}

	if count > 0 {
		logging.Info().Int64("deleted", count).Time("cutoff", cutoff).Msg("Deleted expired access log entries")
	}

	return count, nil
}
