package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kyleking/schemasync/internal/config"
)

// NewTestStore creates an initialized SQLite store in a temporary directory.
// It is closed when the test ends.
func NewTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := config.DefaultConfig().Database
	cfg.Driver = config.DriverSQLite
	cfg.Path = filepath.Join(t.TempDir(), "test.db")

	store, err := NewStoreFromConfig(context.Background(), &cfg, nil)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test store: %v", err)
		}
	})

	return store
}

// SeedRows executes the given statements against the store, failing the test on error
func SeedRows(t *testing.T, store *Store, stmts ...string) {
	t.Helper()

	for _, stmt := range stmts {
		if _, err := store.db.ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("failed to seed %q: %v", stmt, err)
		}
	}
}
