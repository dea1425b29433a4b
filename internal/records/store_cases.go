package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const caseColumns = "id, owner_id, status, created_at, updated_at"

// CreateCase inserts a new formation case for the given owner.
func (s *Store) CreateCase(ctx context.Context, ownerID string) (*Case, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, errors.New("create case: owner id required")
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO cases (id, owner_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id,
		ownerID,
		CaseInProgress,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert case: %w", err)
	}

	return s.GetCase(ctx, id)
}

// GetCase loads a case by id.
func (s *Store) GetCase(ctx context.Context, id string) (*Case, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+caseColumns+` FROM cases WHERE id = ?`,
		id,
	)
	kase, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	return kase, nil
}

// ListCases returns every case, newest first.
func (s *Store) ListCases(ctx context.Context) ([]*Case, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+caseColumns+` FROM cases ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var cases []*Case
	for rows.Next() {
		kase, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, kase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return cases, nil
}

// SetCaseStatus applies the external case-review decision. The workflow engine
// only reads this status; mutation is reserved for the review surface.
func (s *Store) SetCaseStatus(ctx context.Context, id string, status CaseStatus) error {
	if _, ok := ParseCaseStatus(string(status)); !ok {
		return fmt.Errorf("set case status: unknown status %q", status)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE cases SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set case status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set case status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanCase(scanner interface{ Scan(dest ...any) error }) (*Case, error) {
	var (
		id         string
		ownerID    string
		statusStr  string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &ownerID, &statusStr, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	kase := &Case{
		ID:      id,
		OwnerID: ownerID,
		Status:  CaseStatus(statusStr),
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		kase.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		kase.UpdatedAt = updated
	}
	return kase, nil
}
