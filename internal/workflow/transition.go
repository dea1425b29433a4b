package workflow

import (
	"context"
	"fmt"

	"dossier/internal/catalog"
	"dossier/internal/logging"
	"dossier/internal/notifications"
	"dossier/internal/records"
	"dossier/internal/services"
)

// Transition submits content for a step and advances it. The target status is
// Validated for auto-validate steps and Complete otherwise, except that a step
// already Validated keeps its status and only the content is replaced: a
// resubmission never downgrades an operator-granted validation.
//
// Validation, gating, and the write are fail closed; the configured side
// effect is fail open and never reverses a committed write.
func (e *Engine) Transition(ctx context.Context, role catalog.Role, caseID, stepID, content string) (*records.StepRecord, error) {
	ctx = annotate(ctx, role, caseID, stepID)

	step, ok := e.catalog.StepByID(role, stepID)
	if !ok {
		return nil, &NotFoundError{Kind: "step", ID: stepID, Role: role}
	}
	snap, err := e.loadSnapshot(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := e.checkOpen(snap, stepID); err != nil {
		return nil, err
	}
	if err := validateContent(step, content); err != nil {
		return nil, err
	}
	if err := e.checkGate(step, snap); err != nil {
		return nil, err
	}

	existing := snap.record(stepID)
	target := records.StatusComplete
	switch {
	case step.AutoValidate:
		target = records.StatusValidated
	case existing != nil && existing.Status == records.StatusValidated:
		target = records.StatusValidated
	}

	record, err := e.write(ctx, caseID, stepID, target, content, existing)
	if err != nil {
		return nil, err
	}

	e.publishSideEffect(ctx, step, snap.kase, step.SideEffect)
	return record, nil
}

// SaveDraft stores partial content for a step without advancing it. The step
// is marked InProgress; a step already at Complete or Validated keeps its
// status and only the content changes. Gating applies: a step may not leave
// Unset before its prerequisites are satisfied. Content is checked for shape
// only, not for required fields.
func (e *Engine) SaveDraft(ctx context.Context, role catalog.Role, caseID, stepID, content string) (*records.StepRecord, error) {
	ctx = annotate(ctx, role, caseID, stepID)

	step, ok := e.catalog.StepByID(role, stepID)
	if !ok {
		return nil, &NotFoundError{Kind: "step", ID: stepID, Role: role}
	}
	snap, err := e.loadSnapshot(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := e.checkOpen(snap, stepID); err != nil {
		return nil, err
	}
	if _, err := parseContent(stepID, content); err != nil {
		return nil, err
	}
	if err := e.checkGate(step, snap); err != nil {
		return nil, err
	}

	existing := snap.record(stepID)
	target := records.StatusInProgress
	if existing != nil && existing.Status.AtLeast(records.StatusComplete) {
		target = existing.Status
	}
	return e.write(ctx, caseID, stepID, target, content, existing)
}

// ValidateAndClose moves a Complete step to Validated without new content.
// The step has already passed its own gate; only its own status matters here.
// Closing an already Validated step is a no-op.
func (e *Engine) ValidateAndClose(ctx context.Context, role catalog.Role, caseID, stepID string) (*records.StepRecord, error) {
	ctx = annotate(ctx, role, caseID, stepID)

	step, ok := e.catalog.StepByID(role, stepID)
	if !ok {
		return nil, &NotFoundError{Kind: "step", ID: stepID, Role: role}
	}
	snap, err := e.loadSnapshot(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := e.checkOpen(snap, stepID); err != nil {
		return nil, err
	}

	existing := snap.record(stepID)
	if existing == nil || !existing.Status.AtLeast(records.StatusComplete) {
		status := records.StatusUnset
		if existing != nil {
			status = existing.Status
		}
		return nil, &ValidationError{StepID: stepID, Reason: fmt.Sprintf("cannot validate a step at status %s", status)}
	}
	if existing.Status == records.StatusValidated {
		return existing, nil
	}

	record, err := e.write(ctx, caseID, stepID, records.StatusValidated, existing.ContentJSON, existing)
	if err != nil {
		return nil, err
	}

	effect := step.SideEffect
	if effect == nil {
		effect = &catalog.SideEffect{Event: string(notifications.EventStepValidated), Recipient: string(catalog.RoleClient)}
	}
	e.publishSideEffect(ctx, step, snap.kase, effect)
	return record, nil
}

func (e *Engine) checkOpen(snap snapshot, stepID string) error {
	if snap.kase.Status.Closed() {
		return &ValidationError{StepID: stepID, Reason: fmt.Sprintf("case %s is closed (%s)", snap.kase.ID, snap.kase.Status)}
	}
	return nil
}

// checkGate enforces prerequisites: every listed step must be at or past
// Complete. Absent an explicit list, the immediately preceding step of the
// same role gates this one.
func (e *Engine) checkGate(step catalog.StepDefinition, snap snapshot) error {
	prereqs := step.Prerequisites
	if len(prereqs) == 0 {
		if prev, ok := e.catalog.PreviousStep(step); ok {
			prereqs = []string{prev.ID}
		}
	}
	for _, ref := range prereqs {
		status := snap.status(ref)
		if !status.AtLeast(records.StatusComplete) {
			return &GatingError{StepID: step.ID, BlockedBy: ref, Status: status}
		}
	}
	return nil
}

func (e *Engine) write(ctx context.Context, caseID, stepID string, status records.Status, content string, existing *records.StepRecord) (*records.StepRecord, error) {
	var expected int64
	if existing != nil {
		expected = existing.Revision
	}
	record, err := e.store.UpsertRecord(ctx, caseID, stepID, status, content, expected)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "workflow", "upsert record", "transition not applied", err)
	}
	logging.WithContext(ctx, e.logger).Info("step record written",
		logging.String("status", string(status)),
		logging.Int64("revision", record.Revision),
	)
	return record, nil
}

// publishSideEffect delivers the step's configured notification. Failures are
// logged and swallowed: the transition is already committed.
func (e *Engine) publishSideEffect(ctx context.Context, step catalog.StepDefinition, kase *records.Case, effect *catalog.SideEffect) {
	if e.notifier == nil || effect == nil {
		return
	}
	payload := notifications.Payload{
		"case_id":   kase.ID,
		"owner_id":  kase.OwnerID,
		"step_name": step.Name,
		"recipient": effect.Recipient,
	}
	if err := e.notifier.Publish(ctx, notifications.Event(effect.Event), payload); err != nil {
		logging.WithContext(ctx, e.logger).Warn("side effect notification failed",
			logging.String(logging.FieldEvent, effect.Event),
			logging.Error(err),
		)
	}
}

func annotate(ctx context.Context, role catalog.Role, caseID, stepID string) context.Context {
	ctx = services.WithCaseID(ctx, caseID)
	ctx = services.WithStepID(ctx, stepID)
	return services.WithRole(ctx, string(role))
}
