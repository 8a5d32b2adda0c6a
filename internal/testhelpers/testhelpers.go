package testhelpers

import (
	"context"
	"testing"

	"github.com/crosscrm/crm/internal/database"
)

// NewTestDB returns an in-memory SQLite database configured the same way as
// production. The database is automatically closed when the test completes.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// NewMigratedDB returns an in-memory database with all migrations applied.
func NewMigratedDB(t *testing.T) *database.DB {
	t.Helper()

	db := NewTestDB(t)
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
