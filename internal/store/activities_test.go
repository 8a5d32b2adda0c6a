package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/store"
)

func TestActivityCRUD(t *testing.T) {
	s, c, ctx := setupStore(t)

	dealID := int64(3)
	done := c.Now()
	created, err := s.Activities.Create(ctx, &domain.Activity{
		Type:        domain.ActivityNote,
		Subject:     "Deal moved from prospecting to proposal",
		Description: "Deal stage changed automatically",
		DealID:      &dealID,
		CompletedAt: &done,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.CompletedAt == nil || !created.CompletedAt.Equal(done) {
		t.Errorf("expected completed_at %v, got %v", done, created.CompletedAt)
	}

	created.Outcome = "noted"
	updated, err := s.Activities.Update(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Outcome != "noted" {
		t.Errorf("expected outcome noted, got %q", updated.Outcome)
	}

	list, total, err := s.Activities.List(ctx, domain.ActivityFilter{DealID: &dealID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || list[0].ID != created.ID {
		t.Errorf("expected the created activity, got %+v", list)
	}

	if err := s.Activities.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Activities.Get(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestActivityCountForContact(t *testing.T) {
	s, c, ctx := setupStore(t)

	contact, err := s.Contacts.Create(ctx, &domain.Contact{FirstName: "Lin", LastName: "Chen"})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}

	if _, err := s.Activities.Create(ctx, &domain.Activity{Type: domain.ActivityCall, Subject: "old", ContactID: &contact.ID}); err != nil {
		t.Fatalf("create: %v", err)
	}
	c.Advance(60 * 24 * time.Hour)
	if _, err := s.Activities.Create(ctx, &domain.Activity{Type: domain.ActivityEmail, Subject: "new", ContactID: &contact.ID}); err != nil {
		t.Fatalf("create: %v", err)
	}

	total, recent, err := s.Activities.CountForContact(ctx, contact.ID, c.Now().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 2 || recent != 1 {
		t.Errorf("expected total=2 recent=1, got %d/%d", total, recent)
	}

	total, recent, err = s.Activities.CountForContact(ctx, 999, c.Now())
	if err != nil {
		t.Fatalf("count missing: %v", err)
	}
	if total != 0 || recent != 0 {
		t.Errorf("expected zero counts, got %d/%d", total, recent)
	}
}
