// Package testing provides testing utilities and helpers for the
// portfolio core: a real, migrated, file-backed SQLite database per
// test, plus fixtures and mocks.
package testing

import (
	"os"
	"testing"

	"github.com/afadil/wealthfolio-sub005/internal/database"
)

// NewTestDB creates a file-backed SQLite database with the core schema
// applied. Returns the database instance and a cleanup function that closes
// the connection and removes the temporary file. The cleanup function is
// idempotent and safe to call multiple times.
func NewTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test_core_*.db")
	if err != nil {
		t.Fatalf("failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    "core",
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close test database: %v", err)
		}
		if err := os.Remove(tmpPath); err != nil {
			t.Logf("warning: failed to remove temporary database file %s: %v", tmpPath, err)
		}
	}
}

// MustExec runs a one-off statement against the test database, failing the
// test on error. Useful for seeding rows a fixture helper doesn't cover.
func MustExec(t *testing.T, db *database.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Conn().Exec(query, args...); err != nil {
		t.Fatalf("exec failed: %v\nquery: %s\nargs: %v", err, query, args)
	}
}
