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

// CompanyStore defines the interface for company persistence.
type CompanyStore interface {
	Create(ctx context.Context, c *domain.Company) (*domain.Company, error)
	Get(ctx context.Context, id int64) (*domain.Company, error)
	Update(ctx context.Context, c *domain.Company) (*domain.Company, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f domain.CompanyFilter) ([]*domain.Company, int, error)
}

// SQLCompanyStore implements CompanyStore.
type SQLCompanyStore struct {
	q   database.Querier
	now func() time.Time
}

// NewSQLCompanyStore creates a new SQLCompanyStore.
func NewSQLCompanyStore(q database.Querier, now func() time.Time) *SQLCompanyStore {
	return &SQLCompanyStore{q: q, now: now}
}

const companyColumns = `id, name, industry, website, address, employee_count, annual_revenue, created_at, updated_at`

// Create inserts c and returns the stored row.
func (s *SQLCompanyStore) Create(ctx context.Context, c *domain.Company) (*domain.Company, error) {
	var id int64
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO companies (name, industry, website, address, employee_count, annual_revenue, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		c.Name, nullString(c.Industry), nullString(c.Website), nullString(c.Address),
		nullInt(c.EmployeeCount), nullDecimal(c.AnnualRevenue), formatTime(s.now()),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert company: %w", err)
	}
	return s.Get(ctx, id)
}

// Get retrieves a company by ID.
func (s *SQLCompanyStore) Get(ctx context.Context, id int64) (*domain.Company, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// Update overwrites every mutable column of c and stamps updated_at.
func (s *SQLCompanyStore) Update(ctx context.Context, c *domain.Company) (*domain.Company, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE companies SET name = ?, industry = ?, website = ?, address = ?,
		 employee_count = ?, annual_revenue = ?, updated_at = ? WHERE id = ?`,
		c.Name, nullString(c.Industry), nullString(c.Website), nullString(c.Address),
		nullInt(c.EmployeeCount), nullDecimal(c.AnnualRevenue), formatTime(s.now()), c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, c.ID)
}

// Delete removes a company. Contacts and deals referencing it keep their rows
// with the reference cleared.
func (s *SQLCompanyStore) Delete(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns companies matching f ordered by name, plus the total match
// count ignoring paging.
func (s *SQLCompanyStore) List(ctx context.Context, f domain.CompanyFilter) ([]*domain.Company, int, error) {
	var w where
	if f.Search != "" {
		p := likePattern(f.Search)
		w.add(`(LOWER(name) LIKE ? OR LOWER(COALESCE(industry, '')) LIKE ?)`, p, p)
	}

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count companies: %w", err)
	}

	query, args := page(`SELECT `+companyColumns+` FROM companies`+w.String()+` ORDER BY name, id`, w.args, f.Offset, f.Limit)
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	companies := []*domain.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}
	return companies, total, nil
}

func scanCompany(r rowScanner) (*domain.Company, error) {
	var (
		c                          domain.Company
		industry, website, address sql.NullString
		employees                  sql.NullInt64
		revenue, updatedAt         sql.NullString
		createdAt                  string
	)
	if err := r.Scan(&c.ID, &c.Name, &industry, &website, &address, &employees, &revenue, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan company: %w", err)
	}
	c.Industry = industry.String
	c.Website = website.String
	c.Address = address.String
	c.EmployeeCount = scanInt(employees)

	var err error
	if c.AnnualRevenue, err = scanDecimal(revenue); err != nil {
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
