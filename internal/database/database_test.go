package database_test

import (
	"testing"

	"github.com/crosscrm/crm/internal/database"
	"github.com/crosscrm/crm/internal/testhelpers"
)

func TestOpen(t *testing.T) {
	db := testhelpers.NewTestDB(t)

	if err := db.Ping(); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if db.Dialect != database.SQLite {
		t.Errorf("dialect = %q, want sqlite", db.Dialect)
	}

	// Verify WAL mode is set.
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	// In-memory databases may report "memory" instead of "wal".
	if journalMode != "wal" && journalMode != "memory" {
		t.Errorf("journal_mode = %q, want wal or memory", journalMode)
	}

	// Verify foreign keys are enabled.
	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := database.Open("oracle", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		dialect database.Dialect
		in      string
		want    string
	}{
		{database.SQLite, "SELECT * FROM deals WHERE id = ?", "SELECT * FROM deals WHERE id = ?"},
		{database.Postgres, "SELECT * FROM deals WHERE id = ? AND stage = ?", "SELECT * FROM deals WHERE id = $1 AND stage = $2"},
		{database.Postgres, "SELECT '?' FROM deals WHERE id = ?", "SELECT '?' FROM deals WHERE id = $1"},
		{database.Postgres, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		if got := database.Rebind(tt.dialect, tt.in); got != tt.want {
			t.Errorf("Rebind(%s, %q) = %q, want %q", tt.dialect, tt.in, got, tt.want)
		}
	}
}
