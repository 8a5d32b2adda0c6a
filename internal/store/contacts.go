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

// ContactStore defines the interface for contact persistence.
type ContactStore interface {
	Create(ctx context.Context, c *domain.Contact) (*domain.Contact, error)
	Get(ctx context.Context, id int64) (*domain.Contact, error)
	Update(ctx context.Context, c *domain.Contact) (*domain.Contact, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f domain.ContactFilter) ([]*domain.Contact, int, error)
	SetLeadScore(ctx context.Context, id int64, score int) error
}

// SQLContactStore implements ContactStore.
type SQLContactStore struct {
	q   database.Querier
	now func() time.Time
}

// NewSQLContactStore creates a new SQLContactStore.
func NewSQLContactStore(q database.Querier, now func() time.Time) *SQLContactStore {
	return &SQLContactStore{q: q, now: now}
}

const contactColumns = `id, first_name, last_name, email, phone, job_title, company_id, tags,
	lead_source, lifecycle_stage, lead_score, created_by, created_at, updated_at`

// Create inserts c and returns the stored row.
func (s *SQLContactStore) Create(ctx context.Context, c *domain.Contact) (*domain.Contact, error) {
	tags, err := encodeTags(c.Tags)
	if err != nil {
		return nil, err
	}

	var id int64
	err = s.q.QueryRowContext(ctx,
		`INSERT INTO contacts (first_name, last_name, email, phone, job_title, company_id, tags,
		 lead_source, lifecycle_stage, lead_score, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		c.FirstName, c.LastName, nullString(c.Email), nullString(c.Phone), nullString(c.JobTitle),
		nullInt64(c.CompanyID), tags, nullString(c.LeadSource), nullString(c.LifecycleStage),
		c.LeadScore, nullInt64(c.CreatedBy), formatTime(s.now()),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	return s.Get(ctx, id)
}

// Get retrieves a contact by ID.
func (s *SQLContactStore) Get(ctx context.Context, id int64) (*domain.Contact, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// Update overwrites every mutable column of c and stamps updated_at.
func (s *SQLContactStore) Update(ctx context.Context, c *domain.Contact) (*domain.Contact, error) {
	tags, err := encodeTags(c.Tags)
	if err != nil {
		return nil, err
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE contacts SET first_name = ?, last_name = ?, email = ?, phone = ?, job_title = ?,
		 company_id = ?, tags = ?, lead_source = ?, lifecycle_stage = ?, updated_at = ?
		 WHERE id = ?`,
		c.FirstName, c.LastName, nullString(c.Email), nullString(c.Phone), nullString(c.JobTitle),
		nullInt64(c.CompanyID), tags, nullString(c.LeadSource), nullString(c.LifecycleStage),
		formatTime(s.now()), c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, c.ID)
}

// SetLeadScore stores a recomputed lead score.
func (s *SQLContactStore) SetLeadScore(ctx context.Context, id int64, score int) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE contacts SET lead_score = ?, updated_at = ? WHERE id = ?`,
		score, formatTime(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("set lead score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a contact.
func (s *SQLContactStore) Delete(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns contacts matching f, newest first, plus the total match count.
func (s *SQLContactStore) List(ctx context.Context, f domain.ContactFilter) ([]*domain.Contact, int, error) {
	var w where
	if f.Search != "" {
		p := likePattern(f.Search)
		w.add(`(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ?)`, p, p, p)
	}
	if f.CompanyID != nil {
		w.add(`company_id = ?`, *f.CompanyID)
	}

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	query, args := page(`SELECT `+contactColumns+` FROM contacts`+w.String()+` ORDER BY created_at DESC, id DESC`, w.args, f.Offset, f.Limit)
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	contacts := []*domain.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}
	return contacts, total, nil
}

func scanContact(r rowScanner) (*domain.Contact, error) {
	var (
		c                            domain.Contact
		email, phone, jobTitle       sql.NullString
		source, lifecycle, updatedAt sql.NullString
		companyID, createdBy         sql.NullInt64
		tags, createdAt              string
	)
	err := r.Scan(&c.ID, &c.FirstName, &c.LastName, &email, &phone, &jobTitle, &companyID, &tags,
		&source, &lifecycle, &c.LeadScore, &createdBy, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan contact: %w", err)
	}
	c.Email = email.String
	c.Phone = phone.String
	c.JobTitle = jobTitle.String
	c.LeadSource = source.String
	c.LifecycleStage = lifecycle.String
	c.CompanyID = scanInt64(companyID)
	c.CreatedBy = scanInt64(createdBy)

	if c.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = scanTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
