package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavour behind a DB.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Querier is the subset of *sql.DB / *sql.Tx used by the stores. Queries are
// written with "?" placeholders and rebound for the active dialect.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps *sql.DB with placeholder rebinding.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Tx wraps *sql.Tx with placeholder rebinding.
type Tx struct {
	*sql.Tx
	Dialect Dialect
}

// Open opens a database for the given driver ("sqlite" or "postgres").
//
// SQLite is configured for production use: WAL mode, foreign keys enabled,
// busy timeout of 5s and a single connection.
func Open(driver, dsn string) (*DB, error) {
	switch Dialect(driver) {
	case SQLite:
		return openSQLite(dsn)
	case Postgres:
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		return &DB{DB: db, Dialect: Postgres}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

func openSQLite(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for SQLite to avoid locking issues.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	return &DB{DB: db, Dialect: SQLite}, nil
}

// ExecContext rebinds query and executes it.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.DB.ExecContext(ctx, rebind(d.Dialect, query), args...)
}

// QueryContext rebinds query and runs it.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.DB.QueryContext(ctx, rebind(d.Dialect, query), args...)
}

// QueryRowContext rebinds query and runs it.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.DB.QueryRowContext(ctx, rebind(d.Dialect, query), args...)
}

// Begin starts a transaction.
func (d *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, Dialect: d.Dialect}, nil
}

// ExecContext rebinds query and executes it inside the transaction.
func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.Tx.ExecContext(ctx, rebind(t.Dialect, query), args...)
}

// QueryContext rebinds query and runs it inside the transaction.
func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.Tx.QueryContext(ctx, rebind(t.Dialect, query), args...)
}

// QueryRowContext rebinds query and runs it inside the transaction.
func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.Tx.QueryRowContext(ctx, rebind(t.Dialect, query), args...)
}

// Rebind converts "?" placeholders to the dialect's native form.
func Rebind(d Dialect, query string) string {
	return rebind(d, query)
}

func rebind(d Dialect, query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
