package db

import (
	"path/filepath"
	"testing"
)

// newTestDB opens a throwaway sqlite database in a temp directory and runs
// all migrations. The database is closed when the test finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	database, err := NewDB(path)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	return database
}

// createTestUser registers a user with fixed credentials for store tests.
func createTestUser(t *testing.T, database *DB, email string) *User {
	t.Helper()

	user, err := database.CreateUser("Test User", email, "hunter2hunter2")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}
