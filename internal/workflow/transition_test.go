package workflow_test

import (
	"context"
	"errors"
	"testing"

	"dossier/internal/catalog"
	"dossier/internal/notifications"
	"dossier/internal/records"
	"dossier/internal/services"
	"dossier/internal/testsupport"
	"dossier/internal/workflow"
)

func TestTransitionRejectsContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{company_name: Acme"},
		{"json array", `["company_name"]`},
		{"missing required field", `{"company_name":"Acme GmbH","legal_form":"GmbH"}`},
		{"empty required field", `{"company_name":"Acme GmbH","legal_form":"GmbH","registered_address":"  "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, store, _ := newTestEngine(t)
			kase := testsupport.NewCase(t, store, "owner-1")
			ctx := context.Background()

			_, err := engine.Transition(ctx, catalog.RoleClient, kase.ID, "company-profile", tt.content)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}

			// A rejected submission leaves no record behind.
			record, getErr := store.GetRecord(ctx, kase.ID, "company-profile")
			if getErr != nil {
				t.Fatalf("GetRecord: %v", getErr)
			}
			if record != nil {
				t.Fatalf("record persisted after rejected transition: %+v", record)
			}
		})
	}
}

func TestTransitionAttachmentRules(t *testing.T) {
	base := `"identity_document_url":"https://files.example/id.pdf","proof_of_address_url":"https://files.example/addr.pdf"`
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			"within limits",
			`{` + base + `,"attachments":[{"name":"id.pdf","content_type":"application/pdf","size_bytes":1024}]}`,
			false,
		},
		{
			"oversized attachment",
			`{` + base + `,"attachments":[{"name":"id.pdf","content_type":"application/pdf","size_bytes":31457280}]}`,
			true,
		},
		{
			"disallowed type",
			`{` + base + `,"attachments":[{"name":"id.zip","content_type":"application/zip","size_bytes":1024}]}`,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, store, _ := newTestEngine(t)
			kase := testsupport.NewCase(t, store, "owner-1")
			completeClientProfile(t, engine, kase.ID)

			_, err := engine.Transition(context.Background(), catalog.RoleClient, kase.ID, "founder-documents", tt.content)
			if tt.wantErr {
				if !errors.Is(err, services.ErrValidation) {
					t.Fatalf("err = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transition: %v", err)
			}
		})
	}
}

func TestTransitionGated(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	kase := testsupport.NewCase(t, store, "owner-1")

	content := `{"identity_document_url":"https://files.example/id.pdf","proof_of_address_url":"https://files.example/addr.pdf"}`
	_, err := engine.Transition(context.Background(), catalog.RoleClient, kase.ID, "founder-documents", content)
	if !errors.Is(err, services.ErrGated) {
		t.Fatalf("err = %v, want ErrGated", err)
	}
	var gated *workflow.GatingError
	if !errors.As(err, &gated) {
		t.Fatalf("err = %v, want GatingError", err)
	}
	if gated.BlockedBy != "company-profile" || gated.Status != records.StatusUnset {
		t.Fatalf("gating = %+v, want blocked by unset company-profile", gated)
	}
}

func TestTransitionExplicitPrerequisite(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	kase := testsupport.NewCase(t, store, "owner-1")
	ctx := context.Background()

	// document-collection names registry-filing explicitly.
	_, err := engine.Transition(ctx, catalog.RoleOperator, kase.ID, "document-collection", `{"collected_documents":["kbis"]}`)
	var gated *workflow.GatingError
	if !errors.As(err, &gated) || gated.BlockedBy != "registry-filing" {
		t.Fatalf("err = %v, want gated by registry-filing", err)
	}

	if _, err := engine.Transition(ctx, catalog.RoleOperator, kase.ID, "registry-filing", "{}"); err != nil {
		t.Fatalf("Transition(registry-filing): %v", err)
	}
	if _, err := engine.Transition(ctx, catalog.RoleOperator, kase.ID, "document-collection", `{"collected_documents":["kbis"]}`); err != nil {
		t.Fatalf("Transition(document-collection) after prerequisite: %v", err)
	}
}

func TestTransitionCompletesStep(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	kase := testsupport.NewCase(t, store, "owner-1")
	ctx := context.Background()

	record, err := engine.Transition(ctx, catalog.RoleClient, kase.ID, "company-profile",
		`{"company_name":"Acme GmbH","legal_form":"GmbH","registered_address":"Beispielstr. 1"}`)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if record.Status != records.StatusComplete {
		t.Fatalf("status = %s, want complete", record.Status)
	}
	if record.CompletedAt == nil {
		t.Fatal("CompletedAt not set on completion")
	}
	if record.Revision != 1 {
		t.Fatalf("revision = %d, want 1", record.Revision)
	}
}

func TestTransitionUnknownStep(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	kase := testsupport.NewCase(t, store, "owner-1")

	// registry-filing exists, but not in the client track.
	_, err := engine.Transition(context.Background(), catalog.RoleClient, kase.ID, "registry-filing", "{}")
	var notFound *workflow.NotFoundError
	if !errors.As(err, &notFound) || notFound.Kind != "step" {
		t.Fatalf("err = %v, want step NotFoundError", err)
	}
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAutoValidateSurvivesNotifierFailure(t *testing.T) {
	engine, store, notifier := newTestEngine(t)
	notifier.fail = true
	kase := testsupport.NewCase(t, store, "owner-1")

	record, err := engine.Transition(context.Background(), catalog.RoleOperator, kase.ID, "registry-filing", "{}")
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if record.Status != records.StatusValidated {
		t.Fatalf("status = %s, want validated", record.Status)
	}

	events := notifier.published()
	if len(events) != 1 || events[0] != notifications.EventFilingSubmitted {
		t.Fatalf("published events = %v, want [filing_submitted]", events)
	}
}

func TestValidatedPreservedOnResubmit(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	kase := testsupport.NewCase(t, store, "owner-1")
	ctx := context.Background()

	completeClientProfile(t, engine, kase.ID)
	if _, err := engine.ValidateAndClose(ctx, catalog.RoleClient, kase.ID, "company-profile"); err != nil {
		t.Fatalf("ValidateAndClose: %v", err)
	}

	updated := `{"company_name":"Acme Holding GmbH","legal_form":"GmbH","registered_address":"Beispielstr. 2"}`
	record, err := engine.Transition(ctx, catalog.RoleClient, kase.ID, "company-profile", updated)
	if err != nil {
		t.Fatalf("Transition (resubmit): %v", err)
	}
	if record.Status != records.StatusValidated {
		t.Fatalf("status = %s, want validated preserved", record.Status)
	}
	if record.ContentJSON != updated {
		t.Fatalf("content = %s, want updated content", record.ContentJSON)
	}
	if record.Revision != 3 {
		t.Fatalf("revision = %d, want 3", record.Revision)
	}
}

func TestValidateAndClose(t *testing.T) {
	engine, store, notifier := newTestEngine(t)
	kase := testsupport.NewCase(t, store, "owner-1")
	ctx := context.Background()

	completeClientProfile(t, engine, kase.ID)
	before, err := store.GetRecord(ctx, kase.ID, "company-profile")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}

	record, err := engine.ValidateAndClose(ctx, catalog.RoleClient, kase.ID, "company-profile")
	if err != nil {
		t.Fatalf("ValidateAndClose: %v", err)
	}
	if record.Status != records.StatusValidated {
		t.Fatalf("status = %s, want validated", record.Status)
	}
	if record.ContentJSON != before.ContentJSON {
		t.Fatal("content changed during validation")
	}

	// The step has no configured side effect, so the generic event fires.
	events := notifier.published()
	if len(events) != 1 || events[0] != notifications.EventStepValidated {
		t.Fatalf("published events = %v, want [step_validated]", events)
	}

	// Validating again is a no-op.
	again, err := engine.ValidateAndClose(ctx, catalog.RoleClient, kase.ID, "company-profile")
	if err != nil {
		t.Fatalf("ValidateAndClose (second): %v", err)
	}
	if again.Revision != record.Revision {
		t.Fatalf("revision advanced on no-op validation: %d -> %d", record.Revision, again.Revision)
	}
	if got := notifier.published(); len(got) != 1 {
		t.Fatalf("no-op validation published events: %v", got)
	}
}

func TestValidateAndCloseRequiresComplete(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	kase := testsupport.NewCase(t, store, "owner-1")
	ctx := context.Background()

	_, err := engine.ValidateAndClose(ctx, catalog.RoleClient, kase.ID, "company-profile")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	if _, err := engine.SaveDraft(ctx, catalog.RoleClient, kase.ID, "company-profile", `{"company_name":"Acme"}`); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	_, err = engine.ValidateAndClose(ctx, catalog.RoleClient, kase.ID, "company-profile")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err after draft = %v, want ErrValidation", err)
	}
}

func TestSaveDraft(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	kase := testsupport.NewCase(t, store, "owner-1")
	ctx := context.Background()

	// Drafts skip required-field checks but not the JSON shape check.
	if _, err := engine.SaveDraft(ctx, catalog.RoleClient, kase.ID, "company-profile", "{not json"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	record, err := engine.SaveDraft(ctx, catalog.RoleClient, kase.ID, "company-profile", `{"company_name":"Acme GmbH"}`)
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if record.Status != records.StatusInProgress {
		t.Fatalf("status = %s, want in_progress", record.Status)
	}

	// A draft on a gated step is still rejected.
	if _, err := engine.SaveDraft(ctx, catalog.RoleClient, kase.ID, "founder-documents", "{}"); !errors.Is(err, services.ErrGated) {
		t.Fatalf("err = %v, want ErrGated", err)
	}
}

func TestSaveDraftNeverDowngrades(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	kase := testsupport.NewCase(t, store, "owner-1")
	ctx := context.Background()

	completeClientProfile(t, engine, kase.ID)
	record, err := engine.SaveDraft(ctx, catalog.RoleClient, kase.ID, "company-profile", `{"company_name":"Acme GmbH"}`)
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if record.Status != records.StatusComplete {
		t.Fatalf("status = %s, want complete retained", record.Status)
	}
}

func TestClosedCaseRejectsWrites(t *testing.T) {
	for _, status := range []records.CaseStatus{records.CaseAccepted, records.CaseRejected} {
		t.Run(string(status), func(t *testing.T) {
			engine, store, _ := newTestEngine(t)
			kase := testsupport.NewCase(t, store, "owner-1")
			ctx := context.Background()

			if err := store.SetCaseStatus(ctx, kase.ID, status); err != nil {
				t.Fatalf("SetCaseStatus: %v", err)
			}

			content := `{"company_name":"Acme GmbH","legal_form":"GmbH","registered_address":"Beispielstr. 1"}`
			if _, err := engine.Transition(ctx, catalog.RoleClient, kase.ID, "company-profile", content); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("Transition err = %v, want ErrValidation", err)
			}
			if _, err := engine.SaveDraft(ctx, catalog.RoleClient, kase.ID, "company-profile", "{}"); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("SaveDraft err = %v, want ErrValidation", err)
			}
			if _, err := engine.ValidateAndClose(ctx, catalog.RoleClient, kase.ID, "company-profile"); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("ValidateAndClose err = %v, want ErrValidation", err)
			}
		})
	}
}
