package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosscrm/crm/internal/database"
	"github.com/crosscrm/crm/internal/domain"
)

// DealStore defines the interface for deal persistence. It stores rows as
// given; stage rules live in the pipeline engine.
type DealStore interface {
	Create(ctx context.Context, d *domain.Deal) (*domain.Deal, error)
	Get(ctx context.Context, id int64) (*domain.Deal, error)
	Update(ctx context.Context, d *domain.Deal) (*domain.Deal, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f domain.DealFilter) ([]*domain.Deal, int, error)
}

// SQLDealStore implements DealStore.
type SQLDealStore struct {
	q   database.Querier
	now func() time.Time
}

// NewSQLDealStore creates a new SQLDealStore.
func NewSQLDealStore(q database.Querier, now func() time.Time) *SQLDealStore {
	return &SQLDealStore{q: q, now: now}
}

const dealColumns = `id, title, description, value, currency, stage, probability,
	expected_close_date, actual_close_date, contact_id, company_id, assigned_to, created_at, updated_at`

// Create inserts d with created_at set to now and updated_at left empty.
func (s *SQLDealStore) Create(ctx context.Context, d *domain.Deal) (*domain.Deal, error) {
	var id int64
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO deals (title, description, value, currency, stage, probability,
		 expected_close_date, actual_close_date, contact_id, company_id, assigned_to, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		d.Title, nullString(d.Description), d.Value.String(), d.Currency, string(d.Stage), d.Probability,
		nullDate(d.ExpectedCloseDate), nullDate(d.ActualCloseDate),
		nullInt64(d.ContactID), nullInt64(d.CompanyID), nullInt64(d.AssignedTo), formatTime(s.now()),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert deal: %w", err)
	}
	return s.Get(ctx, id)
}

// Get retrieves a deal by ID.
func (s *SQLDealStore) Get(ctx context.Context, id int64) (*domain.Deal, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = ?`, id)
	d, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// Update overwrites every mutable column of d and stamps updated_at.
func (s *SQLDealStore) Update(ctx context.Context, d *domain.Deal) (*domain.Deal, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE deals SET title = ?, description = ?, value = ?, currency = ?, stage = ?, probability = ?,
		 expected_close_date = ?, actual_close_date = ?, contact_id = ?, company_id = ?, assigned_to = ?,
		 updated_at = ? WHERE id = ?`,
		d.Title, nullString(d.Description), d.Value.String(), d.Currency, string(d.Stage), d.Probability,
		nullDate(d.ExpectedCloseDate), nullDate(d.ActualCloseDate),
		nullInt64(d.ContactID), nullInt64(d.CompanyID), nullInt64(d.AssignedTo), formatTime(s.now()), d.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update deal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, d.ID)
}

// Delete removes a deal. Its history rows are kept.
func (s *SQLDealStore) Delete(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns deals matching f, newest first, plus the total match count
// ignoring paging. A zero Limit returns every match.
func (s *SQLDealStore) List(ctx context.Context, f domain.DealFilter) ([]*domain.Deal, int, error) {
	var w where
	if f.Stage != nil {
		w.add(`stage = ?`, string(*f.Stage))
	}
	if f.AssignedTo != nil {
		w.add(`assigned_to = ?`, *f.AssignedTo)
	}
	if f.ContactID != nil {
		w.add(`contact_id = ?`, *f.ContactID)
	}
	if f.CreatedGTE != nil {
		w.add(`created_at >= ?`, formatTime(*f.CreatedGTE))
	}
	if f.CreatedLTE != nil {
		w.add(`created_at <= ?`, formatTime(*f.CreatedLTE))
	}
	if f.MinValue != nil {
		w.add(`CAST(value AS NUMERIC) >= CAST(? AS NUMERIC)`, f.MinValue.String())
	}
	if f.MaxValue != nil {
		w.add(`CAST(value AS NUMERIC) <= CAST(? AS NUMERIC)`, f.MaxValue.String())
	}

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count deals: %w", err)
	}

	query, args := page(`SELECT `+dealColumns+` FROM deals`+w.String()+` ORDER BY created_at DESC, id DESC`, w.args, f.Offset, f.Limit)
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list deals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	deals := []*domain.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, 0, err
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}
	return deals, total, nil
}

func scanDeal(r rowScanner) (*domain.Deal, error) {
	var (
		d                              domain.Deal
		description                    sql.NullString
		value, stage, createdAt        string
		expectedClose, actualClose     sql.NullString
		contactID, companyID, assignee sql.NullInt64
		updatedAt                      sql.NullString
	)
	err := r.Scan(&d.ID, &d.Title, &description, &value, &d.Currency, &stage, &d.Probability,
		&expectedClose, &actualClose, &contactID, &companyID, &assignee, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan deal: %w", err)
	}
	d.Description = description.String
	d.Stage = domain.Stage(stage)
	d.ContactID = scanInt64(contactID)
	d.CompanyID = scanInt64(companyID)
	d.AssignedTo = scanInt64(assignee)

	if d.Value, err = decimal.NewFromString(value); err != nil {
		return nil, fmt.Errorf("parse deal value %q: %w", value, err)
	}
	if d.ExpectedCloseDate, err = scanDate(expectedClose); err != nil {
		return nil, err
	}
	if d.ActualCloseDate, err = scanDate(actualClose); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = scanTime(updatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}
