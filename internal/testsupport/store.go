package testsupport

import (
	"context"
	"testing"

	"briefcast/internal/config"
	"briefcast/internal/records"
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

// NewItem creates a new pending item for tests using the provided store.
func NewItem(t testing.TB, store *records.Store, sourceURL string) *records.Item {
	t.Helper()

	item, _, err := store.CreateItem(context.Background(), sourceURL)
	if err != nil {
		t.Fatalf("store.CreateItem: %v", err)
	}
	return item
}
