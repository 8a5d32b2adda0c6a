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

// ActivityStore defines the interface for activity persistence.
type ActivityStore interface {
	Create(ctx context.Context, a *domain.Activity) (*domain.Activity, error)
	Get(ctx context.Context, id int64) (*domain.Activity, error)
	Update(ctx context.Context, a *domain.Activity) (*domain.Activity, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f domain.ActivityFilter) ([]*domain.Activity, int, error)
	CountForContact(ctx context.Context, contactID int64, since time.Time) (total, recent int, err error)
}

// SQLActivityStore implements ActivityStore.
type SQLActivityStore struct {
	q   database.Querier
	now func() time.Time
}

// NewSQLActivityStore creates a new SQLActivityStore.
func NewSQLActivityStore(q database.Querier, now func() time.Time) *SQLActivityStore {
	return &SQLActivityStore{q: q, now: now}
}

const activityColumns = `id, type, subject, description, outcome, contact_id, deal_id, user_id,
	scheduled_at, completed_at, created_at`

// Create inserts a and returns the stored row.
func (s *SQLActivityStore) Create(ctx context.Context, a *domain.Activity) (*domain.Activity, error) {
	var id int64
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO activities (type, subject, description, outcome, contact_id, deal_id, user_id,
		 scheduled_at, completed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		string(a.Type), a.Subject, nullString(a.Description), nullString(a.Outcome),
		nullInt64(a.ContactID), nullInt64(a.DealID), nullInt64(a.UserID),
		nullTime(a.ScheduledAt), nullTime(a.CompletedAt), formatTime(s.now()),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return s.Get(ctx, id)
}

// Get retrieves an activity by ID.
func (s *SQLActivityStore) Get(ctx context.Context, id int64) (*domain.Activity, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// Update overwrites every mutable column of a.
func (s *SQLActivityStore) Update(ctx context.Context, a *domain.Activity) (*domain.Activity, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE activities SET type = ?, subject = ?, description = ?, outcome = ?, contact_id = ?,
		 deal_id = ?, scheduled_at = ?, completed_at = ? WHERE id = ?`,
		string(a.Type), a.Subject, nullString(a.Description), nullString(a.Outcome),
		nullInt64(a.ContactID), nullInt64(a.DealID), nullTime(a.ScheduledAt), nullTime(a.CompletedAt), a.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, a.ID)
}

// Delete removes an activity.
func (s *SQLActivityStore) Delete(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns activities matching f, newest first, plus the total count.
func (s *SQLActivityStore) List(ctx context.Context, f domain.ActivityFilter) ([]*domain.Activity, int, error) {
	var w where
	if f.ContactID != nil {
		w.add(`contact_id = ?`, *f.ContactID)
	}
	if f.DealID != nil {
		w.add(`deal_id = ?`, *f.DealID)
	}
	if f.UserID != nil {
		w.add(`user_id = ?`, *f.UserID)
	}

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}

	query, args := page(`SELECT `+activityColumns+` FROM activities`+w.String()+` ORDER BY created_at DESC, id DESC`, w.args, f.Offset, f.Limit)
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list activities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	activities := []*domain.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}
	return activities, total, nil
}

// CountForContact returns how many activities reference the contact, and how
// many of those were created at or after since.
//
//nolint:gocritic // named results provide clarity for multiple return values
func (s *SQLActivityStore) CountForContact(ctx context.Context, contactID int64, since time.Time) (total, recent int, err error) {
	err = s.q.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0)
		 FROM activities WHERE contact_id = ?`,
		formatTime(since), contactID,
	).Scan(&total, &recent)
	if err != nil {
		return 0, 0, fmt.Errorf("count contact activities: %w", err)
	}
	return total, recent, nil
}

func scanActivity(r rowScanner) (*domain.Activity, error) {
	var (
		a                         domain.Activity
		kind, createdAt           string
		description, outcome      sql.NullString
		contactID, dealID, userID sql.NullInt64
		scheduledAt, completedAt  sql.NullString
	)
	err := r.Scan(&a.ID, &kind, &a.Subject, &description, &outcome, &contactID, &dealID, &userID,
		&scheduledAt, &completedAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan activity: %w", err)
	}
	a.Type = domain.ActivityType(kind)
	a.Description = description.String
	a.Outcome = outcome.String
	a.ContactID = scanInt64(contactID)
	a.DealID = scanInt64(dealID)
	a.UserID = scanInt64(userID)

	if a.ScheduledAt, err = scanTime(scheduledAt); err != nil {
		return nil, err
	}
	if a.CompletedAt, err = scanTime(completedAt); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &a, nil
}
