package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/crosscrm/crm/internal/database"
)

// dataTables lists every data table in foreign-key-safe deletion order.
var dataTables = []string{
	"market_data",
	"agent_runs",
	"tasks",
	"activities",
	"deal_history",
	"deals",
	"contacts",
	"companies",
	"users",
}

// Reset deletes every row from every data table and restarts ID sequences.
// The schema and its migration record are kept.
func (s *Store) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("reset: not available inside a transaction")
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}

	var stmts []string
	if s.DB.Dialect == database.Postgres {
		stmts = []string{"TRUNCATE " + strings.Join(dataTables, ", ") + " RESTART IDENTITY CASCADE"}
	} else {
		for _, table := range dataTables {
			stmts = append(stmts, "DELETE FROM "+table)
		}
		stmts = append(stmts, "DELETE FROM sqlite_sequence")
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("reset: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}
