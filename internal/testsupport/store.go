package testsupport

import (
	"context"
	"testing"

	"dossier/internal/config"
	"dossier/internal/records"
)

// MustOpenStore opens a records.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *records.Store {
	t.Helper()

	store, err := records.Open(cfg)
	if err != nil {
		t.Fatalf("records.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewCase creates a formation case for tests using the provided store.
func NewCase(t testing.TB, store *records.Store, ownerID string) *records.Case {
	t.Helper()

	kase, err := store.CreateCase(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("store.CreateCase: %v", err)
	}
	return kase
}
