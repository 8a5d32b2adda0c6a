package database_test

import (
	"context"
	"testing"

	"github.com/crosscrm/crm/internal/database"
	"github.com/crosscrm/crm/internal/testhelpers"
)

func TestMigrationsCreateAllTables(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tables := []string{
		"schema_migrations",
		"users",
		"companies",
		"contacts",
		"deals",
		"deal_history",
		"activities",
		"tasks",
		"agent_runs",
		"market_data",
	}

	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := database.Migrate(ctx, db); err != nil {
			t.Fatalf("migrate (run %d): %v", i+1, err)
		}
	}

	version, err := database.Version(ctx, db)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 3 {
		t.Errorf("version = %d, want 3", version)
	}
}

func TestMigrationsIndexes(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	indexes := []string{
		"idx_deals_stage",
		"idx_deals_assigned",
		"idx_deal_history_deal",
		"idx_deal_history_stages",
		"idx_activities_deal",
		"idx_tasks_assigned",
		"idx_agent_runs_agent",
		"idx_market_data_type",
	}

	for _, idx := range indexes {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&name)
		if err != nil {
			t.Errorf("index %q not found: %v", idx, err)
		}
	}
}

func TestDealHistorySurvivesDealDelete(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ts := "2025-01-01T00:00:00.000Z"
	if _, err := db.ExecContext(ctx,
		`INSERT INTO deals (id, title, value, stage, probability, created_at) VALUES (1, 'x', '10', 'prospecting', 10, ?)`, ts,
	); err != nil {
		t.Fatalf("insert deal: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO deal_history (deal_id, new_stage, created_at) VALUES (1, 'prospecting', ?)`, ts,
	); err != nil {
		t.Fatalf("insert history: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM deals WHERE id = 1`); err != nil {
		t.Fatalf("delete deal: %v", err)
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deal_history WHERE deal_id = 1`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("history rows = %d, want 1", n)
	}
}
