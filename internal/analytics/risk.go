package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/crosscrm/crm/internal/domain"
)

// RiskSignals are the independent inputs to a deal's risk score.
type RiskSignals struct {
	// DaysOverdue is how many days ago the expected close date passed;
	// zero or less when it has not passed.
	DaysOverdue int
	// DaysStale is the number of days since the last update.
	DaysStale int
	// LowProbabilityLateStage is set for proposal or negotiation deals below
	// 50% probability.
	LowProbabilityLateStage bool
	// DaysInStage is the number of days since the deal entered its stage.
	DaysInStage int
}

// Risk contributions. Each signal is capped independently, then the total
// is capped at MaxRiskScore.
func overdueRisk(days int) int {
	if days <= 0 {
		return 0
	}
	return min(30+(days/7)*5, 50)
}

func staleRisk(days int) int {
	if days <= StaleAfterDays {
		return 0
	}
	return min(20+(days-StaleAfterDays)/7*2, 40)
}

func lowProbabilityRisk(flag bool) int {
	if !flag {
		return 0
	}
	return 25
}

func residencyRisk(days int) int {
	if days <= LongResidencyDays {
		return 0
	}
	return min(15+(days-LongResidencyDays)/7, 30)
}

// ScoreRisk combines the signals into a score in [0, MaxRiskScore]. The
// score never decreases when any single signal grows.
func ScoreRisk(s RiskSignals) int {
	score := overdueRisk(s.DaysOverdue) +
		staleRisk(s.DaysStale) +
		lowProbabilityRisk(s.LowProbabilityLateStage) +
		residencyRisk(s.DaysInStage)
	return max(0, min(score, MaxRiskScore))
}

// Signals derives the risk inputs for d. stageStart is when the deal entered
// its current stage.
func Signals(d *domain.Deal, stageStart, now time.Time) RiskSignals {
	s := RiskSignals{
		DaysStale:   daysBetween(d.LastTouched(), now),
		DaysInStage: daysBetween(stageStart, now),
	}
	if d.ExpectedCloseDate != nil {
		today := domain.NewDate(now)
		if d.ExpectedCloseDate.Before(today.Time) {
			s.DaysOverdue = d.ExpectedCloseDate.DaysUntil(today)
		}
	}
	late := d.Stage == domain.StageProposal || d.Stage == domain.StageNegotiation
	s.LowProbabilityLateStage = late && d.Probability < 50
	return s
}

// Factors describes the signals that contributed to a score.
func (s RiskSignals) Factors(stage domain.Stage) []string {
	factors := []string{}
	if s.DaysOverdue > 0 {
		factors = append(factors, fmt.Sprintf("Expected close date passed %d days ago", s.DaysOverdue))
	}
	if s.DaysStale > StaleAfterDays {
		factors = append(factors, fmt.Sprintf("No updates in %d days", s.DaysStale))
	}
	if s.LowProbabilityLateStage {
		factors = append(factors, "Low probability in late stage")
	}
	if s.DaysInStage > LongResidencyDays {
		factors = append(factors, fmt.Sprintf("In %s stage for %d days", stage, s.DaysInStage))
	}
	return factors
}

// FindAtRisk scores every open deal and returns those above
// AtRiskThreshold, highest score first. A deal's stage start is its latest
// history row that entered a stage, or its creation time.
func FindAtRisk(deals []*domain.Deal, history []*domain.DealHistory, now time.Time) []AtRiskDeal {
	stageStart := make(map[int64]time.Time)
	for _, h := range stageEntries(history) {
		stageStart[h.DealID] = h.CreatedAt
	}

	out := []AtRiskDeal{}
	for _, d := range openDeals(deals) {
		start, ok := stageStart[d.ID]
		if !ok {
			start = d.CreatedAt
		}
		signals := Signals(d, start, now)
		score := ScoreRisk(signals)
		if score <= AtRiskThreshold {
			continue
		}
		out = append(out, AtRiskDeal{
			DealID:      d.ID,
			Title:       d.Title,
			Stage:       string(d.Stage),
			Value:       toFloat(d.Value),
			Probability: d.Probability,
			RiskScore:   score,
			RiskFactors: signals.Factors(d.Stage),
			AssignedTo:  d.AssignedTo,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RiskScore != out[j].RiskScore {
			return out[i].RiskScore > out[j].RiskScore
		}
		return out[i].DealID < out[j].DealID
	})
	return out
}
