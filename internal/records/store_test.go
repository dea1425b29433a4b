package records_test

import (
	"context"
	"errors"
	"testing"

	"dossier/internal/records"
	"dossier/internal/testsupport"
)

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	kase, err := store.CreateCase(ctx, "owner-1")
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	if kase.ID == "" {
		t.Fatal("expected case ID to be assigned")
	}
	if kase.Status != records.CaseInProgress {
		t.Fatalf("new case status = %q", kase.Status)
	}

	fetched, err := store.GetCase(ctx, kase.ID)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	if fetched.OwnerID != "owner-1" {
		t.Fatalf("unexpected fetched case: %#v", fetched)
	}
}

func TestCreateCaseRequiresOwner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.CreateCase(context.Background(), "  "); err == nil {
		t.Fatal("expected error when owner missing")
	}
}

func TestGetCaseNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.GetCase(context.Background(), "missing")
	if !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetCaseStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	kase := testsupport.NewCase(t, store, "owner-1")

	if err := store.SetCaseStatus(ctx, kase.ID, records.CaseAccepted); err != nil {
		t.Fatalf("SetCaseStatus: %v", err)
	}
	fetched, err := store.GetCase(ctx, kase.ID)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	if fetched.Status != records.CaseAccepted {
		t.Fatalf("status = %q, want accepted", fetched.Status)
	}

	if err := store.SetCaseStatus(ctx, kase.ID, records.CaseStatus("bogus")); err == nil {
		t.Fatal("expected rejection of unknown case status")
	}
	if err := store.SetCaseStatus(ctx, "missing", records.CaseRejected); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertRecordInsertAndUpdate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	kase := testsupport.NewCase(t, store, "owner-1")

	record, err := store.UpsertRecord(ctx, kase.ID, "company-profile", records.StatusComplete, `{"company_name":"Acme"}`, 0)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if record.Revision != 1 {
		t.Fatalf("revision = %d, want 1", record.Revision)
	}
	if record.CompletedAt == nil {
		t.Fatal("expected completed_at on complete status")
	}
	firstCompleted := *record.CompletedAt

	updated, err := store.UpsertRecord(ctx, kase.ID, "company-profile", records.StatusValidated, `{"company_name":"Acme SARL"}`, record.Revision)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Revision != 2 {
		t.Fatalf("revision = %d, want 2", updated.Revision)
	}
	if updated.Status != records.StatusValidated {
		t.Fatalf("status = %q", updated.Status)
	}
	if updated.CompletedAt == nil || !updated.CompletedAt.Equal(firstCompleted) {
		t.Fatalf("completed_at should be preserved: %v vs %v", updated.CompletedAt, firstCompleted)
	}
}

func TestUpsertRecordRevisionConflicts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	kase := testsupport.NewCase(t, store, "owner-1")

	if _, err := store.UpsertRecord(ctx, kase.ID, "step", records.StatusInProgress, "", 0); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Second blind insert loses.
	if _, err := store.UpsertRecord(ctx, kase.ID, "step", records.StatusInProgress, "", 0); !errors.Is(err, records.ErrRevisionConflict) {
		t.Fatalf("expected revision conflict on duplicate insert, got %v", err)
	}

	// Stale revision loses.
	if _, err := store.UpsertRecord(ctx, kase.ID, "step", records.StatusComplete, "", 99); !errors.Is(err, records.ErrRevisionConflict) {
		t.Fatalf("expected revision conflict on stale update, got %v", err)
	}
}

func TestUpsertRecordRejectsUnset(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	kase := testsupport.NewCase(t, store, "owner-1")

	if _, err := store.UpsertRecord(context.Background(), kase.ID, "step", records.StatusUnset, "", 0); err == nil {
		t.Fatal("unset must never be persisted")
	}
}

func TestUpsertRecordUnknownCase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.UpsertRecord(context.Background(), "missing", "step", records.StatusComplete, "", 0)
	if !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown case, got %v", err)
	}
}

func TestGetRecordAbsentMeansUnset(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	kase := testsupport.NewCase(t, store, "owner-1")

	record, err := store.GetRecord(context.Background(), kase.ID, "never-touched")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record for untouched step, got %#v", record)
	}
}

func TestRecordsForCase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	kase := testsupport.NewCase(t, store, "owner-1")
	other := testsupport.NewCase(t, store, "owner-2")

	if _, err := store.UpsertRecord(ctx, kase.ID, "a", records.StatusComplete, "", 0); err != nil {
		t.Fatalf("upsert a: %v", err)
	}
	if _, err := store.UpsertRecord(ctx, kase.ID, "b", records.StatusValidated, "", 0); err != nil {
		t.Fatalf("upsert b: %v", err)
	}
	if _, err := store.UpsertRecord(ctx, other.ID, "a", records.StatusInProgress, "", 0); err != nil {
		t.Fatalf("upsert other: %v", err)
	}

	snapshot, err := store.RecordsForCase(ctx, kase.ID)
	if err != nil {
		t.Fatalf("RecordsForCase: %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 records, got %d", len(snapshot))
	}
	if snapshot["b"].Status != records.StatusValidated {
		t.Fatalf("record b status = %q", snapshot["b"].Status)
	}
}

func TestListCasesNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewCase(t, store, "owner-1")
	second := testsupport.NewCase(t, store, "owner-2")

	cases, err := store.ListCases(ctx)
	if err != nil {
		t.Fatalf("ListCases: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	ids := map[string]bool{cases[0].ID: true, cases[1].ID: true}
	if !ids[first.ID] || !ids[second.ID] {
		t.Fatalf("missing cases in listing: %v", ids)
	}
}

func TestHealthAndStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	kase := testsupport.NewCase(t, store, "owner-1")
	if _, err := store.UpsertRecord(ctx, kase.ID, "a", records.StatusValidated, "", 0); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.SetCaseStatus(ctx, kase.ID, records.CaseAccepted); err != nil {
		t.Fatalf("SetCaseStatus: %v", err)
	}

	health := store.Health(ctx)
	if !health.DatabaseExists || !health.DatabaseReadable || !health.IntegrityCheck {
		t.Fatalf("unexpected health: %+v", health)
	}
	if health.TotalCases != 1 || health.TotalRecords != 1 {
		t.Fatalf("unexpected totals: %+v", health)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Cases != 1 || stats.AcceptedCases != 1 || stats.Validated != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
