package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosscrm/crm/internal/domain"
)

// SalesMetrics summarises closed-won revenue.
type SalesMetrics struct {
	TotalRevenue     float64 `json:"total_revenue"`
	DealCount        int     `json:"deal_count"`
	AverageDealValue float64 `json:"average_deal_value"`
}

// PipelineMetrics totals and weights the open pipeline.
type PipelineMetrics struct {
	TotalPipelineValue    float64        `json:"total_pipeline_value"`
	WeightedPipelineValue float64        `json:"weighted_pipeline_value"`
	DealCount             int            `json:"deal_count"`
	DealCounts            map[string]int `json:"deal_counts"`
}

// TrendPoint is the closed-won revenue for one close date.
type TrendPoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Count   int     `json:"count"`
}

// SalespersonPerformance is one user's results.
type SalespersonPerformance struct {
	UserID        int64   `json:"user_id"`
	UserName      string  `json:"user_name"`
	TotalRevenue  float64 `json:"total_revenue"`
	WonDeals      int     `json:"won_deals"`
	ActiveDeals   int     `json:"active_deals"`
	PipelineValue float64 `json:"pipeline_value"`
}

// WinRate is the share of closed deals that were won.
type WinRate struct {
	WinRate     float64 `json:"win_rate"`
	WonDeals    int     `json:"won_deals"`
	LostDeals   int     `json:"lost_deals"`
	TotalClosed int     `json:"total_closed"`
}

// ComputeSalesMetrics sums closed-won deals whose close date falls within
// [start, end]. Nil bounds are open.
func ComputeSalesMetrics(deals []*domain.Deal, start, end *domain.Date) SalesMetrics {
	revenue := decimal.Zero
	count := 0
	for _, d := range deals {
		if d.Stage != domain.StageClosedWon {
			continue
		}
		if start != nil || end != nil {
			if d.ActualCloseDate == nil {
				continue
			}
			if start != nil && d.ActualCloseDate.Before(start.Time) {
				continue
			}
			if end != nil && d.ActualCloseDate.After(end.Time) {
				continue
			}
		}
		revenue = revenue.Add(d.Value)
		count++
	}

	m := SalesMetrics{TotalRevenue: toFloat(revenue), DealCount: count}
	if count > 0 {
		m.AverageDealValue = toFloat(revenue.Div(decimal.NewFromInt(int64(count))))
	}
	return m
}

// ComputePipelineMetrics totals the open pipeline with and without
// probability weighting.
func ComputePipelineMetrics(deals []*domain.Deal) PipelineMetrics {
	m := PipelineMetrics{DealCounts: make(map[string]int)}
	for _, stage := range domain.OpenStages() {
		m.DealCounts[string(stage)] = 0
	}

	total, weighted := decimal.Zero, decimal.Zero
	for _, d := range openDeals(deals) {
		total = total.Add(d.Value)
		weighted = weighted.Add(d.WeightedValue())
		m.DealCounts[string(d.Stage)]++
		m.DealCount++
	}
	m.TotalPipelineValue = toFloat(total)
	m.WeightedPipelineValue = toFloat(weighted)
	return m
}

// ComputeSalesTrends groups closed-won revenue by close date over the last
// days days, oldest first.
func ComputeSalesTrends(deals []*domain.Deal, days int, now time.Time) []TrendPoint {
	since := domain.NewDate(now.AddDate(0, 0, -days))

	type bucket struct {
		revenue decimal.Decimal
		count   int
	}
	buckets := make(map[string]*bucket)
	for _, d := range deals {
		if d.Stage != domain.StageClosedWon || d.ActualCloseDate == nil || d.ActualCloseDate.Before(since.Time) {
			continue
		}
		key := d.ActualCloseDate.String()
		b := buckets[key]
		if b == nil {
			b = &bucket{revenue: decimal.Zero}
			buckets[key] = b
		}
		b.revenue = b.revenue.Add(d.Value)
		b.count++
	}

	out := make([]TrendPoint, 0, len(buckets))
	for date, b := range buckets {
		out = append(out, TrendPoint{Date: date, Revenue: toFloat(b.revenue), Count: b.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// ComputePerformance reports won revenue and open pipeline per user, highest
// revenue first.
func ComputePerformance(users []*domain.User, deals []*domain.Deal) []SalespersonPerformance {
	type tally struct {
		revenue, pipeline decimal.Decimal
		won, active       int
	}
	byUser := make(map[int64]*tally)
	for _, d := range deals {
		if d.AssignedTo == nil {
			continue
		}
		t := byUser[*d.AssignedTo]
		if t == nil {
			t = &tally{revenue: decimal.Zero, pipeline: decimal.Zero}
			byUser[*d.AssignedTo] = t
		}
		switch {
		case d.Stage == domain.StageClosedWon:
			t.revenue = t.revenue.Add(d.Value)
			t.won++
		case d.IsOpen():
			t.pipeline = t.pipeline.Add(d.Value)
			t.active++
		}
	}

	out := make([]SalespersonPerformance, 0, len(users))
	for _, u := range users {
		p := SalespersonPerformance{UserID: u.ID, UserName: u.FullName()}
		if t := byUser[u.ID]; t != nil {
			p.TotalRevenue = toFloat(t.revenue)
			p.PipelineValue = toFloat(t.pipeline)
			p.WonDeals = t.won
			p.ActiveDeals = t.active
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalRevenue > out[j].TotalRevenue })
	return out
}

// ComputeWinRate returns the percentage of closed deals that were won.
func ComputeWinRate(deals []*domain.Deal) WinRate {
	var w WinRate
	for _, d := range deals {
		switch d.Stage {
		case domain.StageClosedWon:
			w.WonDeals++
		case domain.StageClosedLost:
			w.LostDeals++
		}
	}
	w.TotalClosed = w.WonDeals + w.LostDeals
	if w.TotalClosed > 0 {
		w.WinRate = float64(w.WonDeals) / float64(w.TotalClosed) * 100
	}
	return w
}
