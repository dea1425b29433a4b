package records

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a single step within a case.
//
// The order is total and load-bearing: gating compares statuses with AtLeast,
// so Unset < InProgress < Complete < Validated must hold.
type Status string

const (
	StatusUnset      Status = "unset"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusValidated  Status = "validated"
)

var statusRank = map[Status]int{
	StatusUnset:      0,
	StatusInProgress: 1,
	StatusComplete:   2,
	StatusValidated:  3,
}

// AllStatuses returns the ordered list of known step statuses.
func AllStatuses() []Status {
	return []Status{StatusUnset, StatusInProgress, StatusComplete, StatusValidated}
}

// ParseStatus converts a string into a known Status. The empty string parses
// as Unset: absence of a record means the step was never touched.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return StatusUnset, true
	}
	_, ok := statusRank[normalized]
	return normalized, ok
}

// Known reports whether the status is a member of the closed enum.
func (s Status) Known() bool {
	_, ok := statusRank[s]
	return ok
}

// AtLeast reports whether s is at or past other in the step lifecycle.
// Unknown statuses never satisfy a threshold; callers treat them as anomalies.
func (s Status) AtLeast(other Status) bool {
	rank, ok := statusRank[s]
	if !ok {
		return false
	}
	otherRank, ok := statusRank[other]
	if !ok {
		return false
	}
	return rank >= otherRank
}

// CaseStatus is the case-level override status, mutated only by the external
// case-review action and read-only to the workflow engine.
type CaseStatus string

const (
	CaseInProgress CaseStatus = "in_progress"
	CaseAccepted   CaseStatus = "accepted"
	CaseRejected   CaseStatus = "rejected"
)

// ParseCaseStatus converts a string into a known CaseStatus.
func ParseCaseStatus(value string) (CaseStatus, bool) {
	normalized := CaseStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case CaseInProgress, CaseAccepted, CaseRejected:
		return normalized, true
	default:
		return "", false
	}
}

// Closed reports whether the case was closed by review and no longer accepts
// step transitions.
func (s CaseStatus) Closed() bool {
	return s == CaseAccepted || s == CaseRejected
}

// Case is the aggregate root: one LLC formation file progressing through the
// workflow.
type Case struct {
	ID        string
	OwnerID   string
	Status    CaseStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StepRecord is the persisted status and payload for one (case, step) pair.
// No record is ever written for an Unset step; absence of a row means Unset.
type StepRecord struct {
	CaseID      string
	StepID      string
	Status      Status
	ContentJSON string
	Revision    int64
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
