package catalog

import (
	"fmt"
	"sort"
)

// AttachmentRule constrains uploaded documents referenced by step content.
type AttachmentRule struct {
	MaxBytes     int64    `toml:"max_bytes"`
	AllowedTypes []string `toml:"allowed_types"`
}

// ContentRule declares what a step's content payload must contain before a
// transition is accepted.
type ContentRule struct {
	RequiredFields []string        `toml:"required_fields"`
	Attachments    *AttachmentRule `toml:"attachments"`
}

// SideEffect describes the notification published when a step advances.
type SideEffect struct {
	Event     string `toml:"event"`
	Recipient string `toml:"recipient"`
}

// VisibilityRule hides a step until every listed step reached validated
// status. Visibility is always derived from stored records, never persisted.
type VisibilityRule struct {
	RequiresValidated []string `toml:"requires_validated"`
}

// StepDefinition is one immutable step of the formation workflow.
//
// SequenceNumber is meaningful within a role track and kept for compatibility
// lookups; OrderIndex is the global ordering key across both tracks and is
// what every gating and visibility computation relies on.
type StepDefinition struct {
	ID             string          `toml:"id"`
	Name           string          `toml:"name"`
	Role           Role            `toml:"role"`
	SequenceNumber int             `toml:"sequence_number"`
	OrderIndex     int             `toml:"order_index"`
	AutoValidate   bool            `toml:"auto_validate"`
	Prerequisites  []string        `toml:"prerequisites"`
	VisibleWhen    *VisibilityRule `toml:"visible_when"`
	Content        *ContentRule    `toml:"content"`
	SideEffect     *SideEffect     `toml:"side_effect"`
}

// Catalog holds the full step configuration, ordered by OrderIndex.
// It is read-only at engine runtime.
type Catalog struct {
	steps []StepDefinition
	byID  map[string]StepDefinition
}

// New builds a catalog from step definitions, sorting by OrderIndex and
// rejecting structurally invalid configurations.
func New(steps []StepDefinition) (*Catalog, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("catalog: no steps defined")
	}

	ordered := make([]StepDefinition, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	byID := make(map[string]StepDefinition, len(ordered))
	seqByRole := make(map[Role]map[int]struct{})
	perRole := make(map[Role]int)
	lastOrder := 0
	for i, step := range ordered {
		if step.ID == "" {
			return nil, fmt.Errorf("catalog: step %d has no id", i)
		}
		if !step.Role.Valid() {
			return nil, fmt.Errorf("catalog: step %s has unknown role %q", step.ID, step.Role)
		}
		if _, exists := byID[step.ID]; exists {
			return nil, fmt.Errorf("catalog: duplicate step id %s", step.ID)
		}
		if i > 0 && step.OrderIndex <= lastOrder {
			return nil, fmt.Errorf("catalog: step %s order index %d is not strictly increasing", step.ID, step.OrderIndex)
		}
		lastOrder = step.OrderIndex
		if seqByRole[step.Role] == nil {
			seqByRole[step.Role] = make(map[int]struct{})
		}
		if _, exists := seqByRole[step.Role][step.SequenceNumber]; exists {
			return nil, fmt.Errorf("catalog: duplicate sequence number %d in %s track", step.SequenceNumber, step.Role)
		}
		seqByRole[step.Role][step.SequenceNumber] = struct{}{}
		byID[step.ID] = step
		perRole[step.Role]++
	}

	for _, role := range AllRoles() {
		if perRole[role] == 0 {
			return nil, fmt.Errorf("catalog: %s track has no steps", role)
		}
	}

	for _, step := range ordered {
		for _, ref := range step.Prerequisites {
			if ref == step.ID {
				return nil, fmt.Errorf("catalog: step %s lists itself as prerequisite", step.ID)
			}
			if _, ok := byID[ref]; !ok {
				return nil, fmt.Errorf("catalog: step %s references unknown prerequisite %s", step.ID, ref)
			}
		}
		if step.VisibleWhen != nil {
			if len(step.VisibleWhen.RequiresValidated) == 0 {
				return nil, fmt.Errorf("catalog: step %s has an empty visibility rule", step.ID)
			}
			for _, ref := range step.VisibleWhen.RequiresValidated {
				if ref == step.ID {
					return nil, fmt.Errorf("catalog: step %s visibility references itself", step.ID)
				}
				if _, ok := byID[ref]; !ok {
					return nil, fmt.Errorf("catalog: step %s visibility references unknown step %s", step.ID, ref)
				}
			}
		}
	}

	return &Catalog{steps: ordered, byID: byID}, nil
}

// Steps returns every step across both tracks, ordered by OrderIndex.
func (c *Catalog) Steps() []StepDefinition {
	cp := make([]StepDefinition, len(c.steps))
	copy(cp, c.steps)
	return cp
}

// ListSteps returns the ordered steps owned by role.
func (c *Catalog) ListSteps(role Role) []StepDefinition {
	var out []StepDefinition
	for _, step := range c.steps {
		if step.Role == role {
			out = append(out, step)
		}
	}
	return out
}

// Step returns the step with the given id regardless of role.
func (c *Catalog) Step(id string) (StepDefinition, bool) {
	step, ok := c.byID[id]
	return step, ok
}

// StepByID returns the step with the given id when it belongs to role.
func (c *Catalog) StepByID(role Role, id string) (StepDefinition, bool) {
	step, ok := c.byID[id]
	if !ok || step.Role != role {
		return StepDefinition{}, false
	}
	return step, true
}

// StepBySequenceNumber looks a step up by its role-track sequence number.
// Kept for compatibility with callers still holding legacy step numbers; may
// return false after a catalog change.
func (c *Catalog) StepBySequenceNumber(role Role, n int) (StepDefinition, bool) {
	for _, step := range c.steps {
		if step.Role == role && step.SequenceNumber == n {
			return step, true
		}
	}
	return StepDefinition{}, false
}

// PreviousStep returns the immediately preceding step of the same role by
// OrderIndex. It is the default prerequisite when a step declares none.
func (c *Catalog) PreviousStep(step StepDefinition) (StepDefinition, bool) {
	var prev StepDefinition
	found := false
	for _, candidate := range c.steps {
		if candidate.OrderIndex >= step.OrderIndex {
			break
		}
		if candidate.Role == step.Role {
			prev = candidate
			found = true
		}
	}
	return prev, found
}
