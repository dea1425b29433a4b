package catalog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dossier/internal/catalog"
)

func TestDefaultCatalogShape(t *testing.T) {
	cat := catalog.Default()

	client := cat.ListSteps(catalog.RoleClient)
	if len(client) != 3 {
		t.Fatalf("expected 3 client steps, got %d", len(client))
	}
	operator := cat.ListSteps(catalog.RoleOperator)
	if len(operator) != 4 {
		t.Fatalf("expected 4 operator steps, got %d", len(operator))
	}

	last := 0
	for _, step := range cat.Steps() {
		if step.OrderIndex <= last {
			t.Fatalf("order indexes not strictly increasing at %s", step.ID)
		}
		last = step.OrderIndex
	}

	kit, ok := cat.StepByID(catalog.RoleClient, "post-formation-kit")
	if !ok {
		t.Fatal("post-formation-kit missing")
	}
	if kit.VisibleWhen == nil || len(kit.VisibleWhen.RequiresValidated) != 4 {
		t.Fatalf("unexpected visibility rule: %+v", kit.VisibleWhen)
	}

	filing, ok := cat.StepByID(catalog.RoleOperator, "registry-filing")
	if !ok || !filing.AutoValidate || filing.SideEffect == nil {
		t.Fatalf("registry-filing misconfigured: %+v", filing)
	}
}

func TestStepBySequenceNumber(t *testing.T) {
	cat := catalog.Default()

	step, ok := cat.StepBySequenceNumber(catalog.RoleOperator, 5)
	if !ok || step.ID != "capital-deposit" {
		t.Fatalf("sequence 5 = %+v, ok=%v", step, ok)
	}
	if _, ok := cat.StepBySequenceNumber(catalog.RoleClient, 99); ok {
		t.Fatal("expected no client step with sequence 99")
	}
	// Sequence numbers are track-scoped: both tracks have a sequence 3.
	clientThird, ok := cat.StepBySequenceNumber(catalog.RoleClient, 3)
	if !ok || clientThird.ID != "post-formation-kit" {
		t.Fatalf("client sequence 3 = %+v, ok=%v", clientThird, ok)
	}
}

func TestPreviousStep(t *testing.T) {
	cat := catalog.Default()

	kit, _ := cat.StepByID(catalog.RoleClient, "post-formation-kit")
	prev, ok := cat.PreviousStep(kit)
	if !ok || prev.ID != "founder-documents" {
		t.Fatalf("previous of kit = %+v, ok=%v", prev, ok)
	}

	first, _ := cat.StepByID(catalog.RoleClient, "company-profile")
	if _, ok := cat.PreviousStep(first); ok {
		t.Fatal("first client step should have no predecessor")
	}

	deposit, _ := cat.StepByID(catalog.RoleOperator, "capital-deposit")
	prev, ok = cat.PreviousStep(deposit)
	if !ok || prev.ID != "document-collection" {
		t.Fatalf("previous of capital-deposit = %+v, ok=%v", prev, ok)
	}
}

func TestNewRejectsInvalidCatalogs(t *testing.T) {
	base := func() []catalog.StepDefinition {
		return []catalog.StepDefinition{
			{ID: "a", Name: "A", Role: catalog.RoleClient, SequenceNumber: 1, OrderIndex: 1},
			{ID: "b", Name: "B", Role: catalog.RoleOperator, SequenceNumber: 1, OrderIndex: 2},
		}
	}

	tests := []struct {
		name    string
		mutate  func([]catalog.StepDefinition) []catalog.StepDefinition
		wantErr string
	}{
		{
			name:    "empty",
			mutate:  func([]catalog.StepDefinition) []catalog.StepDefinition { return nil },
			wantErr: "no steps",
		},
		{
			name: "duplicate id",
			mutate: func(steps []catalog.StepDefinition) []catalog.StepDefinition {
				steps[1].ID = "a"
				return steps
			},
			wantErr: "duplicate step id",
		},
		{
			name: "duplicate order index",
			mutate: func(steps []catalog.StepDefinition) []catalog.StepDefinition {
				steps[1].OrderIndex = 1
				return steps
			},
			wantErr: "not strictly increasing",
		},
		{
			name: "unknown role",
			mutate: func(steps []catalog.StepDefinition) []catalog.StepDefinition {
				steps[0].Role = "admin"
				return steps
			},
			wantErr: "unknown role",
		},
		{
			name: "missing operator track",
			mutate: func(steps []catalog.StepDefinition) []catalog.StepDefinition {
				steps[1].Role = catalog.RoleClient
				steps[1].SequenceNumber = 2
				return steps
			},
			wantErr: "operator track has no steps",
		},
		{
			name: "unknown prerequisite",
			mutate: func(steps []catalog.StepDefinition) []catalog.StepDefinition {
				steps[1].Prerequisites = []string{"missing"}
				return steps
			},
			wantErr: "unknown prerequisite",
		},
		{
			name: "self visibility",
			mutate: func(steps []catalog.StepDefinition) []catalog.StepDefinition {
				steps[1].VisibleWhen = &catalog.VisibilityRule{RequiresValidated: []string{"b"}}
				return steps
			},
			wantErr: "references itself",
		},
		{
			name: "duplicate sequence in track",
			mutate: func(steps []catalog.StepDefinition) []catalog.StepDefinition {
				steps = append(steps, catalog.StepDefinition{ID: "c", Role: catalog.RoleClient, SequenceNumber: 1, OrderIndex: 3})
				return steps
			},
			wantErr: "duplicate sequence number",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := catalog.New(tc.mutate(base()))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	if role, ok := catalog.ParseRole(" Client "); !ok || role != catalog.RoleClient {
		t.Fatalf("ParseRole client = %q, %v", role, ok)
	}
	if _, ok := catalog.ParseRole("admin"); ok {
		t.Fatal("admin should not parse")
	}
}

func TestLoadOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.toml")
	content := `
[[steps]]
id = "intake"
name = "Intake"
role = "client"
sequence_number = 1
order_index = 1

[[steps]]
id = "review"
name = "Review"
role = "operator"
sequence_number = 2
order_index = 2
auto_validate = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	cat, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cat.Steps()) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(cat.Steps()))
	}

	if _, err := catalog.Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("expected error for missing override file")
	}

	cat, err = catalog.Load("")
	if err != nil || len(cat.Steps()) != 7 {
		t.Fatalf("empty path should return default catalog: %v", err)
	}
}
