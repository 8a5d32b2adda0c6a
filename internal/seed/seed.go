// Package seed loads reference and demo data. Every function is idempotent:
// existing rows are left untouched.
package seed

import (
	"context"
	"fmt"

	"github.com/crosscrm/crm/internal/pipeline"
	"github.com/crosscrm/crm/internal/store"
)

// Seed inserts the default users.
func Seed(ctx context.Context, s *store.Store) error {
	if err := Users(ctx, s); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	return nil
}

// All inserts the default users and, into an empty database, the demo data.
func All(ctx context.Context, s *store.Store, e *pipeline.Engine) error {
	if err := Seed(ctx, s); err != nil {
		return err
	}
	if err := Demo(ctx, s, e); err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	return nil
}
