package testutil

import (
	"testing"

	"vortex-go/internal/database"
)

// NewTestCaseStore creates an in-memory SQLite case store with the schema
// migrated. The store is closed when the test completes.
func NewTestCaseStore(t *testing.T) *database.SQLiteCaseStore {
	t.Helper()

	store, err := database.NewSQLiteCaseStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open case store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
