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

// AgentRunStore records language model exchanges.
type AgentRunStore interface {
	Create(ctx context.Context, r *domain.AgentRun) (*domain.AgentRun, error)
	Get(ctx context.Context, id int64) (*domain.AgentRun, error)
	List(ctx context.Context, f domain.AgentRunFilter) ([]*domain.AgentRun, int, error)
}

// SQLAgentRunStore implements AgentRunStore.
type SQLAgentRunStore struct {
	q   database.Querier
	now func() time.Time
}

// NewSQLAgentRunStore creates a new SQLAgentRunStore.
func NewSQLAgentRunStore(q database.Querier, now func() time.Time) *SQLAgentRunStore {
	return &SQLAgentRunStore{q: q, now: now}
}

const agentRunColumns = `id, agent, subject_id, user_id, model, prompt, response, status, error, duration_ms, created_at`

// Create inserts r and returns the stored row.
func (s *SQLAgentRunStore) Create(ctx context.Context, r *domain.AgentRun) (*domain.AgentRun, error) {
	var id int64
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO agent_runs (agent, subject_id, user_id, model, prompt, response, status, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		r.Agent, nullInt64(r.SubjectID), nullInt64(r.UserID), nullString(r.Model), r.Prompt,
		nullString(r.Response), r.Status, nullString(r.Error), r.DurationMS, formatTime(s.now()),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert agent run: %w", err)
	}
	return s.Get(ctx, id)
}

// Get retrieves a run by ID.
func (s *SQLAgentRunStore) Get(ctx context.Context, id int64) (*domain.AgentRun, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+agentRunColumns+` FROM agent_runs WHERE id = ?`, id)
	r, err := scanAgentRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// List returns runs newest first.
func (s *SQLAgentRunStore) List(ctx context.Context, f domain.AgentRunFilter) ([]*domain.AgentRun, int, error) {
	var w where
	if f.Agent != "" {
		w.add(`agent = ?`, f.Agent)
	}

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM agent_runs`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count agent runs: %w", err)
	}

	query, args := page(`SELECT `+agentRunColumns+` FROM agent_runs`+w.String()+` ORDER BY created_at DESC, id DESC`, w.args, f.Offset, f.Limit)
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list agent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []*domain.AgentRun{}
	for rows.Next() {
		r, err := scanAgentRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}
	return runs, total, nil
}

func scanAgentRun(r rowScanner) (*domain.AgentRun, error) {
	var (
		run                     domain.AgentRun
		subjectID, userID       sql.NullInt64
		model, response, errMsg sql.NullString
		createdAt               string
	)
	err := r.Scan(&run.ID, &run.Agent, &subjectID, &userID, &model, &run.Prompt, &response,
		&run.Status, &errMsg, &run.DurationMS, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan agent run: %w", err)
	}
	run.SubjectID = scanInt64(subjectID)
	run.UserID = scanInt64(userID)
	run.Model = model.String
	run.Response = response.String
	run.Error = errMsg.String
	if run.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &run, nil
}
