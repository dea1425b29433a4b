package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const recordColumns = "case_id, step_id, status, content_json, revision, completed_at, created_at, updated_at"

// GetRecord loads the record for one (case, step) pair. A nil record with a
// nil error means no record exists: the step is Unset.
func (s *Store) GetRecord(ctx context.Context, caseID, stepID string) (*StepRecord, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+recordColumns+` FROM step_records WHERE case_id = ? AND step_id = ?`,
		caseID,
		stepID,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// RecordsForCase returns every present record of a case keyed by step id.
// Steps without an entry are Unset.
func (s *Store) RecordsForCase(ctx context.Context, caseID string) (map[string]*StepRecord, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+recordColumns+` FROM step_records WHERE case_id = ?`,
		caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("records for case: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*StepRecord)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out[record.StepID] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// UpsertRecord writes the record for one (case, step) pair, atomically for
// that key. expectedRevision carries the optimistic concurrency check: pass 0
// when the caller saw no record, otherwise the revision of the record the
// caller validated against. A stale revision yields ErrRevisionConflict and
// no write.
func (s *Store) UpsertRecord(ctx context.Context, caseID, stepID string, status Status, contentJSON string, expectedRevision int64) (*StepRecord, error) {
	if !status.Known() || status == StatusUnset {
		return nil, fmt.Errorf("upsert record: status %q is not persistable", status)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	var completedAt any
	if status.AtLeast(StatusComplete) {
		completedAt = timestamp
	}

	if expectedRevision == 0 {
		_, err := s.execWithRetry(
			ctx,
			`INSERT INTO step_records (case_id, step_id, status, content_json, revision, completed_at, created_at, updated_at)
             VALUES (?, ?, ?, ?, 1, ?, ?, ?)`,
			caseID,
			stepID,
			status,
			nullableString(contentJSON),
			completedAt,
			timestamp,
			timestamp,
		)
		switch {
		case err == nil:
		case isForeignKeyViolation(err):
			return nil, fmt.Errorf("case %s: %w", caseID, ErrNotFound)
		case isUniqueViolation(err):
			return nil, fmt.Errorf("insert record %s/%s: %w", caseID, stepID, ErrRevisionConflict)
		default:
			return nil, fmt.Errorf("insert record: %w", err)
		}
		return s.GetRecord(ctx, caseID, stepID)
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE step_records
         SET status = ?, content_json = ?, revision = revision + 1,
             completed_at = CASE WHEN ? IS NOT NULL THEN COALESCE(completed_at, ?) ELSE completed_at END,
             updated_at = ?
         WHERE case_id = ? AND step_id = ? AND revision = ?`,
		status,
		nullableString(contentJSON),
		completedAt,
		completedAt,
		timestamp,
		caseID,
		stepID,
		expectedRevision,
	)
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("update record %s/%s at revision %d: %w", caseID, stepID, expectedRevision, ErrRevisionConflict)
	}
	return s.GetRecord(ctx, caseID, stepID)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*StepRecord, error) {
	var (
		caseID       string
		stepID       string
		statusStr    string
		content      sql.NullString
		revision     int64
		completedRaw sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(&caseID, &stepID, &statusStr, &content, &revision, &completedRaw, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	record := &StepRecord{
		CaseID:      caseID,
		StepID:      stepID,
		Status:      Status(statusStr),
		ContentJSON: content.String,
		Revision:    revision,
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			record.CompletedAt = &completed
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
