package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crosscrm/crm/internal/database"
	"github.com/crosscrm/crm/internal/domain"
)

// MarketStore defines the interface for market data persistence. Entries are
// never edited once recorded.
type MarketStore interface {
	Create(ctx context.Context, m *domain.MarketData) (*domain.MarketData, error)
	Get(ctx context.Context, id int64) (*domain.MarketData, error)
	List(ctx context.Context, f domain.MarketDataFilter) ([]*domain.MarketData, int, error)
}

// SQLMarketStore implements MarketStore.
type SQLMarketStore struct {
	q   database.Querier
	now func() time.Time
}

// NewSQLMarketStore creates a new SQLMarketStore.
func NewSQLMarketStore(q database.Querier, now func() time.Time) *SQLMarketStore {
	return &SQLMarketStore{q: q, now: now}
}

const marketColumns = `id, data_type, title, description, source, url, industry, region, observed_at, metadata, created_at`

// Create inserts m and returns the stored row. A zero Date is stamped with
// the store clock.
func (s *SQLMarketStore) Create(ctx context.Context, m *domain.MarketData) (*domain.MarketData, error) {
	meta := m.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	now := s.now()
	observed := m.Date
	if observed.IsZero() {
		observed = now
	}

	var id int64
	err = s.q.QueryRowContext(ctx,
		`INSERT INTO market_data (data_type, title, description, source, url, industry, region,
		 observed_at, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		string(m.DataType), m.Title, nullString(m.Description), nullString(m.Source), nullString(m.URL),
		nullString(m.Industry), nullString(m.Region), formatTime(observed), string(metaJSON), formatTime(now),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert market data: %w", err)
	}
	return s.Get(ctx, id)
}

// Get retrieves a market data entry by ID.
func (s *SQLMarketStore) Get(ctx context.Context, id int64) (*domain.MarketData, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+marketColumns+` FROM market_data WHERE id = ?`, id)
	m, err := scanMarketData(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

// List returns entries matching f, newest first, plus the total match count
// ignoring paging.
func (s *SQLMarketStore) List(ctx context.Context, f domain.MarketDataFilter) ([]*domain.MarketData, int, error) {
	var w where
	if f.DataType != nil {
		w.add(`data_type = ?`, string(*f.DataType))
	}
	if f.Industry != "" {
		w.add(`LOWER(industry) = LOWER(?)`, f.Industry)
	}
	if f.Region != "" {
		w.add(`LOWER(region) = LOWER(?)`, f.Region)
	}

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM market_data`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count market data: %w", err)
	}

	query, args := page(`SELECT `+marketColumns+` FROM market_data`+w.String()+` ORDER BY created_at DESC, id DESC`, w.args, f.Offset, f.Limit)
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list market data: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []*domain.MarketData{}
	for rows.Next() {
		m, err := scanMarketData(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}
	return out, total, nil
}

func scanMarketData(r rowScanner) (*domain.MarketData, error) {
	var (
		m                                          domain.MarketData
		dataType                                   string
		description, source, url, industry, region sql.NullString
		observed, meta, createdAt                  string
	)
	if err := r.Scan(&m.ID, &dataType, &m.Title, &description, &source, &url, &industry, &region,
		&observed, &meta, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan market data: %w", err)
	}
	m.DataType = domain.MarketDataType(dataType)
	m.Description = description.String
	m.Source = source.String
	m.URL = url.String
	m.Industry = industry.String
	m.Region = region.String

	if err := json.Unmarshal([]byte(meta), &m.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	var err error
	if m.Date, err = parseTime(observed); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &m, nil
}
