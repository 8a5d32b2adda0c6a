package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/crosscrm/crm/internal/database"
	"github.com/crosscrm/crm/internal/domain"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	List(ctx context.Context, limit int, after int64, email string) ([]*domain.User, bool, int64, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, email, firstName, lastName string) (*domain.User, error)
	All(ctx context.Context) ([]*domain.User, error)
}

// SQLUserStore implements UserStore.
type SQLUserStore struct {
	q   database.Querier
	now func() time.Time
}

// NewSQLUserStore creates a new SQLUserStore.
func NewSQLUserStore(q database.Querier, now func() time.Time) *SQLUserStore {
	return &SQLUserStore{q: q, now: now}
}

const userColumns = `id, email, first_name, last_name, created_at, updated_at`

// Create inserts a new user. A duplicate email returns ErrConflict.
func (s *SQLUserStore) Create(ctx context.Context, email, firstName, lastName string) (*domain.User, error) {
	ts := s.now().UTC()

	var id int64
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO users (email, first_name, last_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		email, firstName, lastName, formatTime(ts), formatTime(ts),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %q already exists: %w", email, ErrConflict)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return s.Get(ctx, id)
}

// List returns a page of users ordered by ID. It reports whether more rows
// follow and the cursor to pass as after for the next page.
//
//nolint:gocritic // named results provide clarity for multiple return values
func (s *SQLUserStore) List(ctx context.Context, limit int, after int64, email string) ([]*domain.User, bool, int64, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id > ?`
	args := []any{after}

	if email != "" {
		query += ` AND email = ?`
		args = append(args, email)
	}

	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, limit+1)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, 0, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, false, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, false, 0, fmt.Errorf("rows iteration: %w", err)
	}

	hasMore := false
	var next int64
	if len(users) > limit {
		hasMore = true
		next = users[limit-1].ID
		users = users[:limit]
	}

	return users, hasMore, next, nil
}

// All pages through every user in ID order.
func (s *SQLUserStore) All(ctx context.Context) ([]*domain.User, error) {
	var (
		users []*domain.User
		after int64
	)
	for {
		page, more, next, err := s.List(ctx, 100, after, "")
		if err != nil {
			return nil, err
		}
		users = append(users, page...)
		if !more {
			return users, nil
		}
		after = next
	}
}

// Get retrieves a single user by ID.
func (s *SQLUserStore) Get(ctx context.Context, id int64) (*domain.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// GetByEmail retrieves a single user by email address.
func (s *SQLUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func scanUser(r rowScanner) (*domain.User, error) {
	var (
		u                    domain.User
		createdAt, updatedAt string
	)
	if err := r.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
