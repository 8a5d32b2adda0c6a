package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/store"
)

func TestMarketDataCreateAndGet(t *testing.T) {
	s, c, ctx := setupStore(t)

	created, err := s.Market.Create(ctx, &domain.MarketData{
		DataType: domain.MarketCompetitor,
		Title:    "Globex cuts prices",
		Source:   "Trade press",
		URL:      "https://example.com/globex",
		Industry: "Manufacturing",
		Region:   "EMEA",
		Metadata: map[string]any{"discount": "15%"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Date.Equal(c.Now()) {
		t.Errorf("date = %v, want store clock %v", created.Date, c.Now())
	}
	if created.Metadata["discount"] != "15%" {
		t.Errorf("metadata not round-tripped: %v", created.Metadata)
	}

	got, err := s.Market.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DataType != domain.MarketCompetitor || got.Region != "EMEA" {
		t.Errorf("unexpected row %+v", got)
	}

	if _, err := s.Market.Get(ctx, created.ID+100); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarketDataList(t *testing.T) {
	s, c, ctx := setupStore(t)

	observed := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	rows := []*domain.MarketData{
		{DataType: domain.MarketTrend, Title: "AI adoption", Industry: "Software", Date: observed},
		{DataType: domain.MarketNews, Title: "Rates hold", Industry: "Finance"},
		{DataType: domain.MarketTrend, Title: "Nearshoring", Industry: "manufacturing", Region: "NA"},
	}
	for _, m := range rows {
		if _, err := s.Market.Create(ctx, m); err != nil {
			t.Fatalf("create %q: %v", m.Title, err)
		}
		c.Advance(time.Hour)
	}

	trend := domain.MarketTrend
	list, total, err := s.Market.List(ctx, domain.MarketDataFilter{DataType: &trend})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("expected 2 trends, got %d (total %d)", len(list), total)
	}
	if list[0].Title != "Nearshoring" {
		t.Errorf("expected newest first, got %q", list[0].Title)
	}
	if !list[1].Date.Equal(observed) {
		t.Errorf("explicit date lost: %v", list[1].Date)
	}
	if list[1].Metadata == nil {
		t.Error("expected empty metadata object, got nil")
	}

	list, total, err = s.Market.List(ctx, domain.MarketDataFilter{Industry: "MANUFACTURING"})
	if err != nil {
		t.Fatalf("list by industry: %v", err)
	}
	if total != 1 || list[0].Title != "Nearshoring" {
		t.Errorf("industry filter: got %d rows", total)
	}

	list, total, err = s.Market.List(ctx, domain.MarketDataFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if total != 3 || len(list) != 1 || list[0].Title != "Rates hold" {
		t.Errorf("paging: total %d, rows %d", total, len(list))
	}
}
