package records

import (
	"context"
	"fmt"
	"os"
)

// DatabaseHealth captures diagnostic information about the case database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	IntegrityCheck   bool
	TotalCases       int
	TotalRecords     int
	Error            string
}

// Stats aggregates counts per case and step status.
type Stats struct {
	Cases          int
	OpenCases      int
	AcceptedCases  int
	RejectedCases  int
	Records        int
	Validated      int
	Complete       int
	InProgressRecs int
}

// Health inspects the database and reports diagnostics without failing.
func (s *Store) Health(ctx context.Context) DatabaseHealth {
	health := DatabaseHealth{DBPath: s.path}

	if _, err := os.Stat(s.path); err == nil {
		health.DatabaseExists = true
	} else {
		health.Error = fmt.Sprintf("stat database: %v", err)
		return health
	}

	ctx = ensureContext(ctx)
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil {
		health.Error = fmt.Sprintf("read schema version: %v", err)
		return health
	}
	health.DatabaseReadable = true

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err == nil && integrity == "ok" {
		health.IntegrityCheck = true
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM cases").Scan(&health.TotalCases); err != nil {
		health.Error = fmt.Sprintf("count cases: %v", err)
		return health
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM step_records").Scan(&health.TotalRecords); err != nil {
		health.Error = fmt.Sprintf("count records: %v", err)
	}
	return health
}

// Stats returns aggregate counts for status reporting.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	var stats Stats

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM cases GROUP BY status")
	if err != nil {
		return stats, fmt.Errorf("case stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("scan case stats: %w", err)
		}
		stats.Cases += count
		switch CaseStatus(status) {
		case CaseAccepted:
			stats.AcceptedCases = count
		case CaseRejected:
			stats.RejectedCases = count
		default:
			stats.OpenCases += count
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate case stats: %w", err)
	}

	recordRows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM step_records GROUP BY status")
	if err != nil {
		return stats, fmt.Errorf("record stats: %w", err)
	}
	defer recordRows.Close()
	for recordRows.Next() {
		var status string
		var count int
		if err := recordRows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("scan record stats: %w", err)
		}
		stats.Records += count
		switch Status(status) {
		case StatusValidated:
			stats.Validated = count
		case StatusComplete:
			stats.Complete = count
		case StatusInProgress:
			stats.InProgressRecs = count
		}
	}
	if err := recordRows.Err(); err != nil {
		return stats, fmt.Errorf("iterate record stats: %w", err)
	}
	return stats, nil
}
