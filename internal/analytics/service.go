package analytics

import (
	"context"
	"fmt"

	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/store"
)

// DefaultForecastDays is the forecast horizon when none is given.
const DefaultForecastDays = 30

// Service loads deals and history and runs the aggregators. Reads that span
// tables run in one transaction so each report is a consistent snapshot.
type Service struct {
	store *store.Store
}

// NewService creates a Service over s. The store clock is the reference time
// for every report.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

func (s *Service) deals(ctx context.Context, q *store.Store) ([]*domain.Deal, error) {
	deals, _, err := q.Deals.List(ctx, domain.DealFilter{})
	if err != nil {
		return nil, fmt.Errorf("load deals: %w", err)
	}
	return deals, nil
}

// PipelineSummary totals the open pipeline.
func (s *Service) PipelineSummary(ctx context.Context) (PipelineSummary, error) {
	deals, err := s.deals(ctx, s.store)
	if err != nil {
		return PipelineSummary{}, err
	}
	return Summarize(deals), nil
}

// Aging reports stale open deals.
func (s *Service) Aging(ctx context.Context) (AgingReport, error) {
	deals, err := s.deals(ctx, s.store)
	if err != nil {
		return AgingReport{}, err
	}
	return AnalyzeAging(deals, s.store.Now()), nil
}

// Velocity reports time in stage for one deal.
func (s *Service) Velocity(ctx context.Context, dealID int64) (Velocity, error) {
	var v Velocity
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		d, err := tx.Deals.Get(ctx, dealID)
		if err != nil {
			return fmt.Errorf("get deal %d: %w", dealID, err)
		}
		history, err := tx.History.ListForDeal(ctx, dealID)
		if err != nil {
			return err
		}
		v = ComputeVelocity(d, history, s.store.Now())
		return nil
	})
	return v, err
}

// Health reports stage conversion and bottlenecks.
func (s *Service) Health(ctx context.Context) (Health, error) {
	var h Health
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		deals, err := s.deals(ctx, tx)
		if err != nil {
			return err
		}
		history, err := tx.History.List(ctx)
		if err != nil {
			return err
		}
		h = AnalyzeHealth(deals, history)
		return nil
	})
	return h, err
}

// AtRisk lists open deals whose risk score exceeds AtRiskThreshold.
func (s *Service) AtRisk(ctx context.Context) ([]AtRiskDeal, error) {
	var out []AtRiskDeal
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		deals, err := s.deals(ctx, tx)
		if err != nil {
			return err
		}
		history, err := tx.History.List(ctx)
		if err != nil {
			return err
		}
		out = FindAtRisk(deals, history, s.store.Now())
		return nil
	})
	return out, err
}

// Forecast weights open deals expected to close within days. A
// non-positive horizon uses DefaultForecastDays.
func (s *Service) Forecast(ctx context.Context, days int) (Forecast, error) {
	if days <= 0 {
		days = DefaultForecastDays
	}
	deals, err := s.deals(ctx, s.store)
	if err != nil {
		return Forecast{}, err
	}
	return ForecastRevenue(deals, days, s.store.Now()), nil
}

// SalesMetrics sums closed-won revenue between start and end inclusive.
func (s *Service) SalesMetrics(ctx context.Context, start, end *domain.Date) (SalesMetrics, error) {
	deals, err := s.deals(ctx, s.store)
	if err != nil {
		return SalesMetrics{}, err
	}
	return ComputeSalesMetrics(deals, start, end), nil
}

// PipelineMetrics totals and weights the open pipeline.
func (s *Service) PipelineMetrics(ctx context.Context) (PipelineMetrics, error) {
	deals, err := s.deals(ctx, s.store)
	if err != nil {
		return PipelineMetrics{}, err
	}
	return ComputePipelineMetrics(deals), nil
}

// SalesTrends groups closed-won revenue by day over the last days days.
func (s *Service) SalesTrends(ctx context.Context, days int) ([]TrendPoint, error) {
	if days <= 0 {
		days = DefaultForecastDays
	}
	deals, err := s.deals(ctx, s.store)
	if err != nil {
		return nil, err
	}
	return ComputeSalesTrends(deals, days, s.store.Now()), nil
}

// Performance reports results per user.
func (s *Service) Performance(ctx context.Context) ([]SalespersonPerformance, error) {
	var out []SalespersonPerformance
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		users, err := tx.Users.All(ctx)
		if err != nil {
			return err
		}
		deals, err := s.deals(ctx, tx)
		if err != nil {
			return err
		}
		out = ComputePerformance(users, deals)
		return nil
	})
	return out, err
}

// WinRate reports the share of closed deals that were won.
func (s *Service) WinRate(ctx context.Context) (WinRate, error) {
	deals, err := s.deals(ctx, s.store)
	if err != nil {
		return WinRate{}, err
	}
	return ComputeWinRate(deals), nil
}

// MarketInsights summarises the newest MarketWindow market entries against
// the current pipeline.
func (s *Service) MarketInsights(ctx context.Context) (MarketInsights, error) {
	var mi MarketInsights
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		rows, _, err := tx.Market.List(ctx, domain.MarketDataFilter{Limit: MarketWindow})
		if err != nil {
			return err
		}
		deals, err := s.deals(ctx, tx)
		if err != nil {
			return err
		}
		mi = SummarizeMarket(rows, deals)
		return nil
	})
	return mi, err
}

// LeadScore computes a contact's lead score without storing it.
func (s *Service) LeadScore(ctx context.Context, contactID int64) (LeadScore, error) {
	var score LeadScore
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		var err error
		score, err = s.scoreLead(ctx, tx, contactID)
		return err
	})
	return score, err
}

// RefreshLeadScore recomputes a contact's lead score and stores it.
func (s *Service) RefreshLeadScore(ctx context.Context, contactID int64) (LeadScore, error) {
	var score LeadScore
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		var err error
		if score, err = s.scoreLead(ctx, tx, contactID); err != nil {
			return err
		}
		return tx.Contacts.SetLeadScore(ctx, contactID, score.TotalScore)
	})
	return score, err
}

func (s *Service) scoreLead(ctx context.Context, tx *store.Store, contactID int64) (LeadScore, error) {
	c, err := tx.Contacts.Get(ctx, contactID)
	if err != nil {
		return LeadScore{}, fmt.Errorf("get contact %d: %w", contactID, err)
	}
	total, recent, err := tx.Activities.CountForContact(ctx, contactID, s.store.Now().AddDate(0, 0, -30))
	if err != nil {
		return LeadScore{}, err
	}
	deals, _, err := tx.Deals.List(ctx, domain.DealFilter{ContactID: &contactID})
	if err != nil {
		return LeadScore{}, fmt.Errorf("load contact deals: %w", err)
	}
	return ScoreLead(LeadInputs{Contact: c, Activities: total, RecentActivities: recent, Deals: deals}), nil
}
