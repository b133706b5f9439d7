package db

import (
	"path/filepath"
	"testing"
)

// OpenTestStore opens a migrated audit store in t.TempDir() and registers
// cleanup. Tests that don't care about the read/write split can use
// Store.Write for everything.
func OpenTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "test.sqlite"), defaultReadPoolSize)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}
	return store
}
