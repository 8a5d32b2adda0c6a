// Package analytics computes read-only reports over deals and their history.
//
// The exported functions are pure: they take loaded rows and a reference
// time and return a snapshot. Service loads the rows. Money is summed as
// decimal and converted to float64 only in the returned structures.
package analytics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosscrm/crm/internal/domain"
)

const (
	// StaleAfterDays is how long an open deal may go without an update
	// before it counts as stale.
	StaleAfterDays = 30
	// LongResidencyDays is how long a deal may sit in one stage before it
	// adds risk.
	LongResidencyDays = 60
	// AtRiskThreshold is the score a deal must exceed to be reported.
	AtRiskThreshold = 30
	// BottleneckRate is the conversion percentage below which a stage pair
	// is a bottleneck.
	BottleneckRate = 30.0
	// MaxRiskScore caps the risk score.
	MaxRiskScore = 100
)

// PipelineSummary totals the open pipeline.
type PipelineSummary struct {
	TotalPipelineValue float64        `json:"total_pipeline_value"`
	DealCounts         map[string]int `json:"deal_counts"`
	TotalDeals         int            `json:"total_deals"`
}

// StaleDeal is an open deal that has not been touched for too long.
type StaleDeal struct {
	DealID     int64  `json:"deal_id"`
	Title      string `json:"title"`
	Stage      string `json:"stage"`
	DaysStale  int    `json:"days_stale"`
	AssignedTo *int64 `json:"assigned_to"`
}

// StageAging is the staleness of the open deals in one stage.
type StageAging struct {
	Count     int     `json:"count"`
	AvgDays   float64 `json:"avg_days"`
	TotalDays int     `json:"total_days"`
}

// AgingReport lists stale deals and per-stage staleness.
type AgingReport struct {
	StaleDeals   []StaleDeal           `json:"stale_deals"`
	AgingByStage map[string]StageAging `json:"aging_by_stage"`
	TotalStale   int                   `json:"total_stale"`
}

// Velocity reports how long one deal spent in each stage.
type Velocity struct {
	DealID              int64              `json:"deal_id"`
	CurrentStage        string             `json:"current_stage"`
	DaysInCurrentStage  int                `json:"days_in_current_stage"`
	AverageDaysPerStage map[string]float64 `json:"average_days_per_stage"`
	TotalDaysOpen       int                `json:"total_days_open"`
}

// Conversion is the observed conversion between two adjacent stages.
type Conversion struct {
	FromCount      int     `json:"from_count"`
	Transitions    int     `json:"transitions"`
	ConversionRate float64 `json:"conversion_rate"`
}

// Bottleneck is a stage pair converting below BottleneckRate.
type Bottleneck struct {
	Stage          string  `json:"stage"`
	ConversionRate float64 `json:"conversion_rate"`
	DealsStuck     int     `json:"deals_stuck"`
	Transitions    int     `json:"transitions"`
}

// Health summarises conversion along the pipeline.
type Health struct {
	StageCounts           map[string]int        `json:"stage_counts"`
	ConversionRates       map[string]Conversion `json:"conversion_rates"`
	Bottlenecks           []Bottleneck          `json:"bottlenecks"`
	WeightedPipelineValue float64               `json:"weighted_pipeline_value"`
	TotalPipelineValue    float64               `json:"total_pipeline_value"`
	HealthScore           int                   `json:"health_score"`
}

// AtRiskDeal is an open deal whose risk score exceeds AtRiskThreshold.
type AtRiskDeal struct {
	DealID      int64    `json:"deal_id"`
	Title       string   `json:"title"`
	Stage       string   `json:"stage"`
	Value       float64  `json:"value"`
	Probability int      `json:"probability"`
	RiskScore   int      `json:"risk_score"`
	RiskFactors []string `json:"risk_factors"`
	AssignedTo  *int64   `json:"assigned_to"`
}

// ForecastDeal is one deal contributing to a forecast.
type ForecastDeal struct {
	DealID            int64   `json:"deal_id"`
	Title             string  `json:"title"`
	Value             float64 `json:"value"`
	WeightedValue     float64 `json:"weighted_value"`
	Probability       int     `json:"probability"`
	ExpectedCloseDate string  `json:"expected_close_date"`
	Stage             string  `json:"stage"`
}

// Forecast is the probability-weighted revenue expected within a horizon.
type Forecast struct {
	ForecastPeriodDays   int            `json:"forecast_period_days"`
	ForecastEndDate      string         `json:"forecast_end_date"`
	ForecastedRevenue    float64        `json:"forecasted_revenue"`
	ForecastedDealsCount int            `json:"forecasted_deals_count"`
	Deals                []ForecastDeal `json:"deals"`
}

// daysBetween returns whole days from a to b, rounding toward negative
// infinity.
func daysBetween(a, b time.Time) int {
	return int(math.Floor(b.Sub(a).Hours() / 24))
}

func openDeals(deals []*domain.Deal) []*domain.Deal {
	out := make([]*domain.Deal, 0, len(deals))
	for _, d := range deals {
		if d.IsOpen() {
			out = append(out, d)
		}
	}
	return out
}

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
