package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crosscrm/crm/internal/database"
	"github.com/crosscrm/crm/internal/domain"
)

// HistoryStore persists the append-only deal audit trail. There is no update
// or delete.
type HistoryStore interface {
	Append(ctx context.Context, h *domain.DealHistory) (*domain.DealHistory, error)
	ListForDeal(ctx context.Context, dealID int64) ([]*domain.DealHistory, error)
	List(ctx context.Context) ([]*domain.DealHistory, error)
}

// SQLHistoryStore implements HistoryStore.
type SQLHistoryStore struct {
	q   database.Querier
	now func() time.Time
}

// NewSQLHistoryStore creates a new SQLHistoryStore.
func NewSQLHistoryStore(q database.Querier, now func() time.Time) *SQLHistoryStore {
	return &SQLHistoryStore{q: q, now: now}
}

const historyColumns = `id, deal_id, old_stage, new_stage, old_value, new_value,
	old_probability, new_probability, changed_by, change_reason, created_at`

// Append writes h stamped with the current time. The returned copy carries
// the assigned ID and timestamp.
func (s *SQLHistoryStore) Append(ctx context.Context, h *domain.DealHistory) (*domain.DealHistory, error) {
	ts := s.now().UTC().Truncate(time.Millisecond)

	var id int64
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO deal_history (deal_id, old_stage, new_stage, old_value, new_value,
		 old_probability, new_probability, changed_by, change_reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		h.DealID, nullStage(h.OldStage), nullStage(h.NewStage), nullDecimal(h.OldValue), nullDecimal(h.NewValue),
		nullInt(h.OldProbability), nullInt(h.NewProbability), nullInt64(h.ChangedBy), nullString(h.ChangeReason),
		formatTime(ts),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert deal history: %w", err)
	}

	out := *h
	out.ID = id
	out.CreatedAt = ts
	return &out, nil
}

// ListForDeal returns a deal's history oldest first. Rows survive deletion
// of the deal itself.
func (s *SQLHistoryStore) ListForDeal(ctx context.Context, dealID int64) ([]*domain.DealHistory, error) {
	return s.query(ctx, `SELECT `+historyColumns+` FROM deal_history WHERE deal_id = ? ORDER BY created_at, id`, dealID)
}

// List returns every history row oldest first.
func (s *SQLHistoryStore) List(ctx context.Context) ([]*domain.DealHistory, error) {
	return s.query(ctx, `SELECT `+historyColumns+` FROM deal_history ORDER BY created_at, id`)
}

func (s *SQLHistoryStore) query(ctx context.Context, query string, args ...any) ([]*domain.DealHistory, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deal history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []*domain.DealHistory{}
	for rows.Next() {
		var (
			h                  domain.DealHistory
			oldStage, newStage sql.NullString
			oldValue, newValue sql.NullString
			oldProb, newProb   sql.NullInt64
			changedBy          sql.NullInt64
			reason             sql.NullString
			createdAt          string
		)
		if err := rows.Scan(&h.ID, &h.DealID, &oldStage, &newStage, &oldValue, &newValue,
			&oldProb, &newProb, &changedBy, &reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scan deal history: %w", err)
		}
		h.OldStage = scanStage(oldStage)
		h.NewStage = scanStage(newStage)
		h.OldProbability = scanInt(oldProb)
		h.NewProbability = scanInt(newProb)
		h.ChangedBy = scanInt64(changedBy)
		h.ChangeReason = reason.String
		if h.OldValue, err = scanDecimal(oldValue); err != nil {
			return nil, err
		}
		if h.NewValue, err = scanDecimal(newValue); err != nil {
			return nil, err
		}
		if h.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return entries, nil
}
