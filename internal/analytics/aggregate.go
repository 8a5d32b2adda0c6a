package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosscrm/crm/internal/domain"
)

// Summarize totals the value of open deals and counts them per open stage.
func Summarize(deals []*domain.Deal) PipelineSummary {
	s := PipelineSummary{DealCounts: make(map[string]int)}
	for _, stage := range domain.OpenStages() {
		s.DealCounts[string(stage)] = 0
	}

	total := decimal.Zero
	for _, d := range openDeals(deals) {
		total = total.Add(d.Value)
		s.DealCounts[string(d.Stage)]++
		s.TotalDeals++
	}
	s.TotalPipelineValue = toFloat(total)
	return s
}

// AnalyzeAging measures days since each open deal was last updated (or
// created) and flags those older than StaleAfterDays.
func AnalyzeAging(deals []*domain.Deal, now time.Time) AgingReport {
	r := AgingReport{
		StaleDeals:   []StaleDeal{},
		AgingByStage: make(map[string]StageAging),
	}

	for _, d := range openDeals(deals) {
		days := daysBetween(d.LastTouched(), now)
		if days > StaleAfterDays {
			r.StaleDeals = append(r.StaleDeals, StaleDeal{
				DealID:     d.ID,
				Title:      d.Title,
				Stage:      string(d.Stage),
				DaysStale:  days,
				AssignedTo: d.AssignedTo,
			})
		}

		a := r.AgingByStage[string(d.Stage)]
		a.Count++
		a.TotalDays += days
		a.AvgDays = float64(a.TotalDays) / float64(a.Count)
		r.AgingByStage[string(d.Stage)] = a
	}

	sort.SliceStable(r.StaleDeals, func(i, j int) bool {
		if r.StaleDeals[i].DaysStale != r.StaleDeals[j].DaysStale {
			return r.StaleDeals[i].DaysStale > r.StaleDeals[j].DaysStale
		}
		return r.StaleDeals[i].DealID < r.StaleDeals[j].DealID
	})
	r.TotalStale = len(r.StaleDeals)
	return r
}

// ComputeVelocity walks a deal's history oldest first and averages the days
// spent in each stage the deal has left. The current stage reports the days
// since the last stage entry unless the deal has already left it once.
func ComputeVelocity(d *domain.Deal, history []*domain.DealHistory, now time.Time) Velocity {
	entries := stageEntries(history)
	durations := make(map[string][]int)
	start := d.CreatedAt

	for _, h := range entries {
		if h.OldStage != nil {
			stage := string(*h.OldStage)
			durations[stage] = append(durations[stage], daysBetween(start, h.CreatedAt))
		}
		start = h.CreatedAt
	}

	avg := make(map[string]float64, len(durations)+1)
	for stage, ds := range durations {
		sum := 0
		for _, v := range ds {
			sum += v
		}
		avg[stage] = float64(sum) / float64(len(ds))
	}

	current := daysBetween(start, now)
	if _, ok := avg[string(d.Stage)]; !ok {
		avg[string(d.Stage)] = float64(current)
	}

	return Velocity{
		DealID:              d.ID,
		CurrentStage:        string(d.Stage),
		DaysInCurrentStage:  current,
		AverageDaysPerStage: avg,
		TotalDaysOpen:       daysBetween(d.CreatedAt, now),
	}
}

// AnalyzeHealth computes conversion between adjacent stages on the path to
// closed_won. A pair's base is the larger of the distinct deals that ever
// left the from stage and the deals currently in it.
func AnalyzeHealth(deals []*domain.Deal, history []*domain.DealHistory) Health {
	h := Health{
		StageCounts:     make(map[string]int),
		ConversionRates: make(map[string]Conversion),
		Bottlenecks:     []Bottleneck{},
	}
	for _, stage := range domain.Stages() {
		h.StageCounts[string(stage)] = 0
	}
	for _, d := range deals {
		h.StageCounts[string(d.Stage)]++
	}

	transitions := make(map[[2]domain.Stage]int)
	left := make(map[domain.Stage]map[int64]struct{})
	for _, e := range history {
		if e.OldStage == nil {
			continue
		}
		if left[*e.OldStage] == nil {
			left[*e.OldStage] = make(map[int64]struct{})
		}
		left[*e.OldStage][e.DealID] = struct{}{}
		if e.NewStage != nil {
			transitions[[2]domain.Stage{*e.OldStage, *e.NewStage}]++
		}
	}

	path := domain.ConversionPath()
	for i := 0; i+1 < len(path); i++ {
		from, to := path[i], path[i+1]
		c := Conversion{
			FromCount:   max(len(left[from]), h.StageCounts[string(from)]),
			Transitions: transitions[[2]domain.Stage{from, to}],
		}
		if c.FromCount > 0 {
			c.ConversionRate = float64(c.Transitions) / float64(c.FromCount) * 100
		}

		key := string(from) + "_to_" + string(to)
		h.ConversionRates[key] = c
		if c.ConversionRate < BottleneckRate && c.FromCount > 0 {
			h.Bottlenecks = append(h.Bottlenecks, Bottleneck{
				Stage:          key,
				ConversionRate: c.ConversionRate,
				DealsStuck:     c.FromCount,
				Transitions:    c.Transitions,
			})
		}
	}

	weighted, total := decimal.Zero, decimal.Zero
	for _, d := range openDeals(deals) {
		weighted = weighted.Add(d.WeightedValue())
		total = total.Add(d.Value)
	}
	h.WeightedPipelineValue = toFloat(weighted)
	h.TotalPipelineValue = toFloat(total)
	h.HealthScore = max(0, 100-10*len(h.Bottlenecks))
	return h
}

// ForecastRevenue weights each open deal expected to close on or before
// now+days by its probability.
func ForecastRevenue(deals []*domain.Deal, days int, now time.Time) Forecast {
	end := domain.NewDate(now.AddDate(0, 0, days))
	f := Forecast{
		ForecastPeriodDays: days,
		ForecastEndDate:    end.String(),
		Deals:              []ForecastDeal{},
	}

	revenue := decimal.Zero
	for _, d := range openDeals(deals) {
		if d.ExpectedCloseDate == nil || d.ExpectedCloseDate.After(end.Time) {
			continue
		}
		weighted := d.WeightedValue()
		revenue = revenue.Add(weighted)
		f.Deals = append(f.Deals, ForecastDeal{
			DealID:            d.ID,
			Title:             d.Title,
			Value:             toFloat(d.Value),
			WeightedValue:     toFloat(weighted),
			Probability:       d.Probability,
			ExpectedCloseDate: d.ExpectedCloseDate.String(),
			Stage:             string(d.Stage),
		})
	}

	sort.SliceStable(f.Deals, func(i, j int) bool {
		return f.Deals[i].ExpectedCloseDate < f.Deals[j].ExpectedCloseDate
	})
	f.ForecastedRevenue = toFloat(revenue)
	f.ForecastedDealsCount = len(f.Deals)
	return f
}

// stageEntries keeps history rows that record entering a stage, oldest
// first.
func stageEntries(history []*domain.DealHistory) []*domain.DealHistory {
	out := make([]*domain.DealHistory, 0, len(history))
	for _, h := range history {
		if h.NewStage != nil {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
