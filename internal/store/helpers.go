package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/crosscrm/crm/internal/domain"
)

// timestampLayout is the storage format of every timestamp column. It sorts
// lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		// Rows written by other tools may carry RFC 3339.
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func scanTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullDate(d *domain.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

func scanDate(ns sql.NullString) (*domain.Date, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func scanInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func scanInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func scanDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", ns.String, err)
	}
	return &d, nil
}

func nullStage(s *domain.Stage) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func scanStage(ns sql.NullString) *domain.Stage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	s := domain.Stage(ns.String)
	return &s
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(s string) ([]string, error) {
	tags := []string{}
	if s == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}

// where accumulates AND-ed predicates for a listing query.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// page appends LIMIT/OFFSET when limit is positive. A non-positive limit
// returns every row.
func page(query string, args []any, offset, limit int) (string, []any) {
	if limit <= 0 {
		return query, args
	}
	if offset < 0 {
		offset = 0
	}
	return query + " LIMIT ? OFFSET ?", append(args, limit, offset)
}

// likePattern wraps s for a case-insensitive substring match.
func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation reports whether err is a unique constraint failure on
// either backend.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
