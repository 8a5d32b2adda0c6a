package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/crosscrm/crm/internal/store"
)

type userDef struct {
	email     string
	firstName string
	lastName  string
}

var defaultUsers = []userDef{
	{email: "admin@example.com", firstName: "Admin", lastName: "User"},
	{email: "sales@example.com", firstName: "Sales", lastName: "Rep"},
	{email: "manager@example.com", firstName: "Sales", lastName: "Manager"},
}

// Users inserts any default user whose email is not taken yet.
func Users(ctx context.Context, s *store.Store) error {
	for _, u := range defaultUsers {
		_, err := s.Users.GetByEmail(ctx, u.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("look up user %s: %w", u.email, err)
		}
		if _, err := s.Users.Create(ctx, u.email, u.firstName, u.lastName); err != nil && !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("insert user %s: %w", u.email, err)
		}
	}
	return nil
}
