package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/store"
)

func TestDealCreateAndGet(t *testing.T) {
	s, _, ctx := setupStore(t)

	user, err := s.Users.Create(ctx, "rep@example.com", "Rep", "One")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	expected, _ := domain.ParseDate("2024-04-15")

	in := newDeal("Acme renewal", 50000, domain.StageQualification)
	in.Value = decimal.RequireFromString("50000.50")
	in.ExpectedCloseDate = &expected
	in.AssignedTo = &user.ID

	created, err := s.Deals.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if created.UpdatedAt != nil {
		t.Errorf("expected updated_at unset on create, got %v", created.UpdatedAt)
	}

	got, err := s.Deals.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Acme renewal" {
		t.Errorf("expected title 'Acme renewal', got %q", got.Title)
	}
	if !got.Value.Equal(decimal.RequireFromString("50000.5")) {
		t.Errorf("expected value 50000.5, got %s", got.Value)
	}
	if got.Stage != domain.StageQualification || got.Probability != 25 {
		t.Errorf("expected qualification/25, got %s/%d", got.Stage, got.Probability)
	}
	if got.ExpectedCloseDate == nil || got.ExpectedCloseDate.String() != "2024-04-15" {
		t.Errorf("expected close date 2024-04-15, got %v", got.ExpectedCloseDate)
	}
	if got.AssignedTo == nil || *got.AssignedTo != user.ID {
		t.Errorf("expected assigned_to %d, got %v", user.ID, got.AssignedTo)
	}
	if !got.CreatedAt.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected created_at %v", got.CreatedAt)
	}
}

func TestDealGetNotFound(t *testing.T) {
	s, _, ctx := setupStore(t)

	if _, err := s.Deals.Get(ctx, 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDealUpdateStampsUpdatedAt(t *testing.T) {
	s, c, ctx := setupStore(t)

	d, err := s.Deals.Create(ctx, newDeal("Update me", 1000, domain.StageProspecting))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c.Advance(2 * time.Hour)
	d.Stage = domain.StageProposal
	d.Probability = 50
	updated, err := s.Deals.Update(ctx, d)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Stage != domain.StageProposal {
		t.Errorf("expected proposal, got %s", updated.Stage)
	}
	if updated.UpdatedAt == nil || !updated.UpdatedAt.Equal(c.Now()) {
		t.Errorf("expected updated_at %v, got %v", c.Now(), updated.UpdatedAt)
	}

	d.ID = 999
	if _, err := s.Deals.Update(ctx, d); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing deal, got %v", err)
	}
}

func TestDealDeleteKeepsHistory(t *testing.T) {
	s, _, ctx := setupStore(t)

	d, err := s.Deals.Create(ctx, newDeal("Doomed", 10, domain.StageProspecting))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stage := domain.StageProspecting
	if _, err := s.History.Append(ctx, &domain.DealHistory{DealID: d.ID, NewStage: &stage}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.Deals.Delete(ctx, d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Deals.Delete(ctx, d.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	history, err := s.History.ListForDeal(ctx, d.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected history to survive deletion, got %d rows", len(history))
	}
}

func TestDealListFilters(t *testing.T) {
	s, c, ctx := setupStore(t)

	rep, err := s.Users.Create(ctx, "rep@example.com", "Rep", "One")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	small := newDeal("Small", 900, domain.StageProspecting)
	if _, err := s.Deals.Create(ctx, small); err != nil {
		t.Fatalf("create small: %v", err)
	}
	c.Advance(24 * time.Hour)
	mid := newDeal("Mid", 5000, domain.StageProposal)
	mid.AssignedTo = &rep.ID
	if _, err := s.Deals.Create(ctx, mid); err != nil {
		t.Fatalf("create mid: %v", err)
	}
	c.Advance(24 * time.Hour)
	large := newDeal("Large", 120000, domain.StageProposal)
	if _, err := s.Deals.Create(ctx, large); err != nil {
		t.Fatalf("create large: %v", err)
	}

	all, total, err := s.Deals.List(ctx, domain.DealFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("expected 3 deals, got %d/%d", len(all), total)
	}
	if all[0].Title != "Large" {
		t.Errorf("expected newest first, got %q", all[0].Title)
	}

	proposal := domain.StageProposal
	byStage, total, err := s.Deals.List(ctx, domain.DealFilter{Stage: &proposal})
	if err != nil {
		t.Fatalf("list by stage: %v", err)
	}
	if total != 2 || len(byStage) != 2 {
		t.Errorf("expected 2 proposal deals, got %d", total)
	}

	byRep, _, err := s.Deals.List(ctx, domain.DealFilter{AssignedTo: &rep.ID})
	if err != nil {
		t.Fatalf("list by assignee: %v", err)
	}
	if len(byRep) != 1 || byRep[0].Title != "Mid" {
		t.Errorf("expected only Mid, got %+v", byRep)
	}

	// Numeric comparison, not lexical: "900" > "5000" as text.
	minValue := decimal.NewFromInt(1000)
	maxValue := decimal.NewFromInt(100000)
	ranged, _, err := s.Deals.List(ctx, domain.DealFilter{MinValue: &minValue, MaxValue: &maxValue})
	if err != nil {
		t.Fatalf("list by value: %v", err)
	}
	if len(ranged) != 1 || ranged[0].Title != "Mid" {
		t.Errorf("expected only Mid in value range, got %+v", ranged)
	}

	since := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	recent, _, err := s.Deals.List(ctx, domain.DealFilter{CreatedGTE: &since})
	if err != nil {
		t.Fatalf("list by created: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("expected 2 deals created since %v, got %d", since, len(recent))
	}

	paged, total, err := s.Deals.List(ctx, domain.DealFilter{Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3 regardless of paging, got %d", total)
	}
	if len(paged) != 1 || paged[0].Title != "Mid" {
		t.Errorf("expected page with Mid, got %+v", paged)
	}
}

func TestHistoryAppendAndList(t *testing.T) {
	s, c, ctx := setupStore(t)

	d, err := s.Deals.Create(ctx, newDeal("Tracked", 10, domain.StageProspecting))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	oldStage, newStage := domain.StageProspecting, domain.StageProposal
	oldProb, newProb := 10, 50
	oldValue, newValue := decimal.NewFromInt(10), decimal.NewFromInt(20)
	actor := int64(7)

	first, err := s.History.Append(ctx, &domain.DealHistory{
		DealID:   d.ID,
		NewStage: &oldStage, NewProbability: &oldProb,
		ChangeReason: "Deal created",
	})
	if err != nil {
		t.Fatalf("append first: %v", err)
	}
	if first.ID == 0 || first.CreatedAt.IsZero() {
		t.Errorf("expected ID and created_at on appended row, got %+v", first)
	}

	c.Advance(time.Minute)
	if _, err := s.History.Append(ctx, &domain.DealHistory{
		DealID:   d.ID,
		OldStage: &oldStage, NewStage: &newStage,
		OldValue: &oldValue, NewValue: &newValue,
		OldProbability: &oldProb, NewProbability: &newProb,
		ChangedBy: &actor,
	}); err != nil {
		t.Fatalf("append second: %v", err)
	}

	rows, err := s.History.ListForDeal(ctx, d.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	if rows[0].OldStage != nil || rows[0].OldValue != nil || rows[0].ChangedBy != nil {
		t.Errorf("expected unset old fields on creation row, got %+v", rows[0])
	}
	if rows[0].ChangeReason != "Deal created" {
		t.Errorf("expected reason 'Deal created', got %q", rows[0].ChangeReason)
	}

	second := rows[1]
	if !second.StageChanged() || *second.OldStage != domain.StageProspecting || *second.NewStage != domain.StageProposal {
		t.Errorf("unexpected stage change %+v", second)
	}
	if !second.NewValue.Equal(newValue) || *second.NewProbability != 50 || *second.ChangedBy != 7 {
		t.Errorf("unexpected values %+v", second)
	}

	all, err := s.History.List(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 rows overall, got %d", len(all))
	}
}
