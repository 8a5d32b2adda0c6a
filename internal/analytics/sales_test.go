package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscrm/crm/internal/analytics"
	"github.com/crosscrm/crm/internal/domain"
)

func won(t *testing.T, id int64, value, closed string, assignee *int64) *domain.Deal {
	t.Helper()
	d := deal(id, domain.StageClosedWon, value, 100)
	d.ActualCloseDate = date(t, closed)
	d.AssignedTo = assignee
	return d
}

func ref(v int64) *int64 { return &v }

func TestComputeSalesMetrics(t *testing.T) {
	deals := []*domain.Deal{
		won(t, 1, "100", "2024-05-01", nil),
		won(t, 2, "300", "2024-06-15", nil),
		won(t, 3, "999", "2024-07-01", nil),
		deal(4, domain.StageNegotiation, "5000", 75),
	}

	all := analytics.ComputeSalesMetrics(deals, nil, nil)
	assert.Equal(t, 3, all.DealCount)
	assert.InDelta(t, 1399.0, all.TotalRevenue, 1e-9)

	ranged := analytics.ComputeSalesMetrics(deals, date(t, "2024-05-01"), date(t, "2024-06-30"))
	assert.Equal(t, 2, ranged.DealCount)
	assert.InDelta(t, 400.0, ranged.TotalRevenue, 1e-9)
	assert.InDelta(t, 200.0, ranged.AverageDealValue, 1e-9)

	none := analytics.ComputeSalesMetrics(nil, nil, nil)
	assert.Zero(t, none.AverageDealValue)
}

func TestComputePipelineMetrics(t *testing.T) {
	m := analytics.ComputePipelineMetrics([]*domain.Deal{
		deal(1, domain.StageProposal, "1000", 50),
		deal(2, domain.StageNegotiation, "2000", 75),
		deal(3, domain.StageClosedWon, "7000", 100),
	})
	assert.Equal(t, 2, m.DealCount)
	assert.InDelta(t, 3000.0, m.TotalPipelineValue, 1e-9)
	assert.InDelta(t, 2000.0, m.WeightedPipelineValue, 1e-9)
	assert.Equal(t, 1, m.DealCounts["proposal"])
	assert.Equal(t, 0, m.DealCounts["prospecting"])
}

func TestComputeSalesTrends(t *testing.T) {
	deals := []*domain.Deal{
		won(t, 1, "100", "2024-06-20", nil),
		won(t, 2, "50", "2024-06-20", nil),
		won(t, 3, "10", "2024-06-01", nil),
		won(t, 4, "10", "2024-05-01", nil),
	}

	got := analytics.ComputeSalesTrends(deals, 30, now)
	require.Len(t, got, 2)
	assert.Equal(t, analytics.TrendPoint{Date: "2024-06-01", Revenue: 10, Count: 1}, got[0])
	assert.Equal(t, analytics.TrendPoint{Date: "2024-06-20", Revenue: 150, Count: 2}, got[1])
}

func TestComputePerformance(t *testing.T) {
	users := []*domain.User{
		{ID: 1, FirstName: "Ada", LastName: "Lovelace"},
		{ID: 2, FirstName: "Alan", LastName: "Turing"},
		{ID: 3, FirstName: "Idle"},
	}
	open := deal(3, domain.StageProposal, "700", 50)
	open.AssignedTo = ref(1)
	deals := []*domain.Deal{
		won(t, 1, "100", "2024-06-01", ref(1)),
		won(t, 2, "500", "2024-06-01", ref(2)),
		open,
		won(t, 4, "1", "2024-06-01", nil),
	}

	got := analytics.ComputePerformance(users, deals)
	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].UserID)
	assert.Equal(t, "Alan Turing", got[0].UserName)
	assert.Equal(t, int64(1), got[1].UserID)
	assert.Equal(t, 1, got[1].ActiveDeals)
	assert.InDelta(t, 700.0, got[1].PipelineValue, 1e-9)
	assert.Equal(t, analytics.SalespersonPerformance{UserID: 3, UserName: "Idle"}, got[2])
}

func TestComputeWinRate(t *testing.T) {
	w := analytics.ComputeWinRate([]*domain.Deal{
		deal(1, domain.StageClosedWon, "1", 100),
		deal(2, domain.StageClosedLost, "1", 0),
		deal(3, domain.StageClosedLost, "1", 0),
		deal(4, domain.StageClosedLost, "1", 0),
		deal(5, domain.StageProposal, "1", 50),
	})
	assert.Equal(t, analytics.WinRate{WinRate: 25, WonDeals: 1, LostDeals: 3, TotalClosed: 4}, w)
	assert.Zero(t, analytics.ComputeWinRate(nil).WinRate)
}
