package store

import (
	"context"
	"fmt"
	"time"

	"github.com/crosscrm/crm/internal/database"
)

// Store holds all sub-stores used by the application.
type Store struct {
	DB         *database.DB
	Users      UserStore
	Companies  CompanyStore
	Contacts   ContactStore
	Deals      DealStore
	History    HistoryStore
	Activities ActivityStore
	Tasks      TaskStore
	AgentRuns  AgentRunStore
	Market     MarketStore

	now func() time.Time
}

// New creates a Store with all sub-stores initialized.
func New(db *database.DB) *Store {
	return NewWithClock(db, time.Now)
}

// NewWithClock is like New but stamps rows using now.
func NewWithClock(db *database.DB, now func() time.Time) *Store {
	s := build(db, now)
	s.DB = db
	return s
}

func build(q database.Querier, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		Users:      NewSQLUserStore(q, now),
		Companies:  NewSQLCompanyStore(q, now),
		Contacts:   NewSQLContactStore(q, now),
		Deals:      NewSQLDealStore(q, now),
		History:    NewSQLHistoryStore(q, now),
		Activities: NewSQLActivityStore(q, now),
		Tasks:      NewSQLTaskStore(q, now),
		AgentRuns:  NewSQLAgentRunStore(q, now),
		Market:     NewSQLMarketStore(q, now),
		now:        now,
	}
}

// Now returns the store clock's current time in UTC.
func (s *Store) Now() time.Time {
	return s.now().UTC()
}

// InTx runs fn with a Store whose sub-stores all share one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.DB == nil {
		// Already inside a transaction.
		return fn(s)
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(build(tx, s.now)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
