package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"dossier/internal/catalog"
	"dossier/internal/logging"
	"dossier/internal/notifications"
	"dossier/internal/records"
	"dossier/internal/services"
)

// RecordStore is the persistence surface the engine consumes. It never
// enforces gating; every validation happens in the engine before a write.
type RecordStore interface {
	GetCase(ctx context.Context, id string) (*records.Case, error)
	GetRecord(ctx context.Context, caseID, stepID string) (*records.StepRecord, error)
	RecordsForCase(ctx context.Context, caseID string) (map[string]*records.StepRecord, error)
	UpsertRecord(ctx context.Context, caseID, stepID string, status records.Status, contentJSON string, expectedRevision int64) (*records.StepRecord, error)
}

// Engine derives all workflow state for a case from the step catalog and the
// stored records, and applies validated transitions. It holds no mutable
// state: every read loads a fresh snapshot, so two calls with no intervening
// writes always derive the same result.
type Engine struct {
	catalog  *catalog.Catalog
	store    RecordStore
	notifier notifications.Service
	logger   *slog.Logger
}

// NewEngine constructs a workflow engine. A nil notifier disables side
// effects; a nil logger discards engine logs.
func NewEngine(cat *catalog.Catalog, store RecordStore, notifier notifications.Service, logger *slog.Logger) *Engine {
	return &Engine{
		catalog:  cat,
		store:    store,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "workflow-engine"),
	}
}

// Catalog exposes the engine's step catalog to read-only callers.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// CurrentStep is the derived "where is this track" view.
type CurrentStep struct {
	Step     catalog.StepDefinition
	Position int // 1-based position within the visible track
	Total    int
}

// Progress is the derived case-level completion view. Percent counts only
// Validated steps; a Complete step gates later steps but adds no progress.
type Progress struct {
	Percent    int
	Validated  int
	Total      int
	CaseStatus records.CaseStatus
}

// snapshot is one consistent read of a case and its records. All derivations
// for a single call work off the same snapshot.
type snapshot struct {
	kase    *records.Case
	records map[string]*records.StepRecord
}

func (s snapshot) record(stepID string) *records.StepRecord {
	return s.records[stepID]
}

// status resolves a step's effective status. An accepted case overrides every
// step to Validated; absence of a record means Unset.
func (s snapshot) status(stepID string) records.Status {
	if s.kase.Status == records.CaseAccepted {
		return records.StatusValidated
	}
	record := s.records[stepID]
	if record == nil {
		return records.StatusUnset
	}
	return record.Status
}

func (e *Engine) loadSnapshot(ctx context.Context, caseID string) (snapshot, error) {
	kase, err := e.store.GetCase(ctx, caseID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) || errors.Is(err, services.ErrNotFound) {
			return snapshot{}, &NotFoundError{Kind: "case", ID: caseID}
		}
		return snapshot{}, services.Wrap(services.ErrPersistence, "workflow", "load case", "", err)
	}
	recs, err := e.store.RecordsForCase(ctx, caseID)
	if err != nil {
		return snapshot{}, services.Wrap(services.ErrPersistence, "workflow", "load records", "", err)
	}
	return snapshot{kase: kase, records: recs}, nil
}

// VisibleSteps computes the steps of a role's track that are currently
// visible, preserving catalog order. Visibility is derived from stored state
// on every call; it is intentionally never persisted.
func (e *Engine) VisibleSteps(ctx context.Context, role catalog.Role, caseID string) ([]catalog.StepDefinition, error) {
	snap, err := e.loadSnapshot(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return e.visibleSteps(role, snap), nil
}

func (e *Engine) visibleSteps(role catalog.Role, snap snapshot) []catalog.StepDefinition {
	var out []catalog.StepDefinition
	for _, step := range e.catalog.ListSteps(role) {
		if step.VisibleWhen != nil && !visible(step.VisibleWhen, snap) {
			continue
		}
		out = append(out, step)
	}
	return out
}

func visible(rule *catalog.VisibilityRule, snap snapshot) bool {
	for _, ref := range rule.RequiresValidated {
		if !snap.status(ref).AtLeast(records.StatusValidated) {
			return false
		}
	}
	return true
}

// DetermineCurrentStep finds the step a role should act on next: the first
// visible step that is absent or in progress. A step in an unexpected status
// is treated as current rather than silently skipped. When the whole track is
// done the last step remains current.
func (e *Engine) DetermineCurrentStep(ctx context.Context, role catalog.Role, caseID string) (CurrentStep, error) {
	snap, err := e.loadSnapshot(ctx, caseID)
	if err != nil {
		return CurrentStep{}, err
	}
	steps := e.visibleSteps(role, snap)
	if len(steps) == 0 {
		return CurrentStep{}, services.Wrap(services.ErrConfiguration, "workflow", "determine current step",
			fmt.Sprintf("no visible steps for role %s", role), nil)
	}

	for i, step := range steps {
		status := snap.status(step.ID)
		switch status {
		case records.StatusUnset, records.StatusInProgress:
			return CurrentStep{Step: step, Position: i + 1, Total: len(steps)}, nil
		case records.StatusComplete, records.StatusValidated:
			if i == len(steps)-1 {
				return CurrentStep{Step: step, Position: i + 1, Total: len(steps)}, nil
			}
		default:
			return CurrentStep{Step: step, Position: i + 1, Total: len(steps)}, nil
		}
	}
	// Unreachable: the last step always returns above.
	last := len(steps) - 1
	return CurrentStep{Step: steps[last], Position: last + 1, Total: len(steps)}, nil
}

// ComputeProgress derives the case-level completion percentage for a role's
// track. An accepted case is always 100 regardless of stored records; a
// rejected case still reports its numeric percent and the caller renders the
// rejection state.
func (e *Engine) ComputeProgress(ctx context.Context, role catalog.Role, caseID string) (Progress, error) {
	snap, err := e.loadSnapshot(ctx, caseID)
	if err != nil {
		return Progress{}, err
	}

	steps := e.visibleSteps(role, snap)
	total := len(steps)
	if snap.kase.Status == records.CaseAccepted {
		return Progress{Percent: 100, Validated: total, Total: total, CaseStatus: snap.kase.Status}, nil
	}

	validated := 0
	for _, step := range steps {
		if snap.status(step.ID).AtLeast(records.StatusValidated) {
			validated++
		}
	}
	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(validated) / float64(total) * 100))
	}
	return Progress{Percent: percent, Validated: validated, Total: total, CaseStatus: snap.kase.Status}, nil
}
