package workflow

import (
	"fmt"

	"dossier/internal/catalog"
	"dossier/internal/records"
	"dossier/internal/services"
)

// GatingError rejects a transition whose prerequisite step has not reached
// Complete. It names the blocking step so callers can direct the user there.
type GatingError struct {
	StepID    string
	BlockedBy string
	Status    records.Status
}

func (e *GatingError) Error() string {
	return fmt.Sprintf("step %s is gated: prerequisite %s is %s", e.StepID, e.BlockedBy, e.Status)
}

func (e *GatingError) Unwrap() error { return services.ErrGated }

// ValidationError rejects malformed or missing step content, or a write
// against a closed case.
type ValidationError struct {
	StepID string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.StepID == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("step %s: %s", e.StepID, e.Reason)
}

func (e *ValidationError) Unwrap() error { return services.ErrValidation }

// NotFoundError reports an unknown case, or a step id that does not exist in
// the acting role's track.
type NotFoundError struct {
	Kind string
	ID   string
	Role catalog.Role
}

func (e *NotFoundError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("%s %s not found for role %s", e.Kind, e.ID, e.Role)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return services.ErrNotFound }
