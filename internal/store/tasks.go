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

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	Create(ctx context.Context, t *domain.Task) (*domain.Task, error)
	Get(ctx context.Context, id int64) (*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) (*domain.Task, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f domain.TaskFilter) ([]*domain.Task, int, error)
	Complete(ctx context.Context, id int64) (*domain.Task, error)
}

// SQLTaskStore implements TaskStore.
type SQLTaskStore struct {
	q   database.Querier
	now func() time.Time
}

// NewSQLTaskStore creates a new SQLTaskStore.
func NewSQLTaskStore(q database.Querier, now func() time.Time) *SQLTaskStore {
	return &SQLTaskStore{q: q, now: now}
}

const taskColumns = `id, title, description, priority, status, due_date, assigned_to, created_by,
	related_contact_id, related_deal_id, completed_at, created_at, updated_at`

// Create inserts t and returns the stored row.
func (s *SQLTaskStore) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	var id int64
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO tasks (title, description, priority, status, due_date, assigned_to, created_by,
		 related_contact_id, related_deal_id, completed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		t.Title, nullString(t.Description), string(t.Priority), string(t.Status), nullDate(t.DueDate),
		t.AssignedTo, t.CreatedBy, nullInt64(t.RelatedContactID), nullInt64(t.RelatedDealID),
		nullTime(t.CompletedAt), formatTime(s.now()),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.Get(ctx, id)
}

// Get retrieves a task by ID.
func (s *SQLTaskStore) Get(ctx context.Context, id int64) (*domain.Task, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// Update overwrites every mutable column of t and stamps updated_at.
func (s *SQLTaskStore) Update(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, priority = ?, status = ?, due_date = ?,
		 assigned_to = ?, related_contact_id = ?, related_deal_id = ?, completed_at = ?, updated_at = ?
		 WHERE id = ?`,
		t.Title, nullString(t.Description), string(t.Priority), string(t.Status), nullDate(t.DueDate),
		t.AssignedTo, nullInt64(t.RelatedContactID), nullInt64(t.RelatedDealID),
		nullTime(t.CompletedAt), formatTime(s.now()), t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, t.ID)
}

// Complete marks a task completed now.
func (s *SQLTaskStore) Complete(ctx context.Context, id int64) (*domain.Task, error) {
	ts := formatTime(s.now())
	res, err := s.q.ExecContext(ctx,
		`UPDATE tasks SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		string(domain.TaskCompleted), ts, ts, id,
	)
	if err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Delete removes a task.
func (s *SQLTaskStore) Delete(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns tasks matching f ordered by due date (undated last), plus the
// total match count.
func (s *SQLTaskStore) List(ctx context.Context, f domain.TaskFilter) ([]*domain.Task, int, error) {
	var w where
	if f.AssignedTo != nil {
		w.add(`assigned_to = ?`, *f.AssignedTo)
	}
	if f.Status != nil {
		w.add(`status = ?`, string(*f.Status))
	}
	if f.Priority != nil {
		w.add(`priority = ?`, string(*f.Priority))
	}

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	query, args := page(`SELECT `+taskColumns+` FROM tasks`+w.String()+
		` ORDER BY CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date, id`, w.args, f.Offset, f.Limit)
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}
	return tasks, total, nil
}

func scanTask(r rowScanner) (*domain.Task, error) {
	var (
		t                      domain.Task
		description, dueDate   sql.NullString
		priority, status       string
		contactID, dealID      sql.NullInt64
		completedAt, updatedAt sql.NullString
		createdAt              string
	)
	err := r.Scan(&t.ID, &t.Title, &description, &priority, &status, &dueDate, &t.AssignedTo, &t.CreatedBy,
		&contactID, &dealID, &completedAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	t.Description = description.String
	t.Priority = domain.TaskPriority(priority)
	t.Status = domain.TaskStatus(status)
	t.RelatedContactID = scanInt64(contactID)
	t.RelatedDealID = scanInt64(dealID)

	if t.DueDate, err = scanDate(dueDate); err != nil {
		return nil, err
	}
	if t.CompletedAt, err = scanTime(completedAt); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = scanTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
