package analytics

import (
	"fmt"
	"sort"

	"github.com/crosscrm/crm/internal/domain"
)

// MarketWindow is how many of the newest market entries a market report
// looks at.
const MarketWindow = 20

// strongPipeline is the open deal count above which the pipeline itself is
// reported as an opportunity.
const strongPipeline = 10

// CompetitorActivity counts competitor entries per industry.
type CompetitorActivity struct {
	Count      int            `json:"count"`
	Industries map[string]int `json:"industries"`
	Insights   []string       `json:"insights"`
}

// MarketInsights groups recent market entries by type and derives
// competitor activity and opportunities from them.
type MarketInsights struct {
	Trends        []*domain.MarketData `json:"trends"`
	Competitors   []*domain.MarketData `json:"competitors"`
	News          []*domain.MarketData `json:"news"`
	Sentiment     []*domain.MarketData `json:"sentiment"`
	Competition   CompetitorActivity   `json:"competition"`
	Opportunities []string             `json:"opportunities"`
}

// AnalyzeCompetitors tallies competitor entries by industry. Entries without
// an industry count as "Unknown".
func AnalyzeCompetitors(rows []*domain.MarketData) CompetitorActivity {
	a := CompetitorActivity{Industries: map[string]int{}, Insights: []string{}}
	for _, m := range rows {
		if m.DataType != domain.MarketCompetitor {
			continue
		}
		industry := m.Industry
		if industry == "" {
			industry = "Unknown"
		}
		a.Industries[industry]++
		a.Count++
	}
	if a.Count > 0 {
		a.Insights = append(a.Insights, fmt.Sprintf("Competitor activity in %d industries", len(a.Industries)))
	}
	return a
}

// SummarizeMarket builds MarketInsights from market entries and the current
// deals.
func SummarizeMarket(rows []*domain.MarketData, deals []*domain.Deal) MarketInsights {
	mi := MarketInsights{
		Trends:        []*domain.MarketData{},
		Competitors:   []*domain.MarketData{},
		News:          []*domain.MarketData{},
		Sentiment:     []*domain.MarketData{},
		Competition:   AnalyzeCompetitors(rows),
		Opportunities: []string{},
	}

	trendIndustries := map[string]int{}
	for _, m := range rows {
		switch m.DataType {
		case domain.MarketTrend:
			mi.Trends = append(mi.Trends, m)
			if m.Industry != "" {
				trendIndustries[m.Industry]++
			}
		case domain.MarketCompetitor:
			mi.Competitors = append(mi.Competitors, m)
		case domain.MarketNews:
			mi.News = append(mi.News, m)
		case domain.MarketSentiment:
			mi.Sentiment = append(mi.Sentiment, m)
		}
	}

	industries := make([]string, 0, len(trendIndustries))
	for industry := range trendIndustries {
		industries = append(industries, industry)
	}
	sort.Strings(industries)
	for _, industry := range industries {
		mi.Opportunities = append(mi.Opportunities,
			fmt.Sprintf("Growing demand signalled in %s (%d trends)", industry, trendIndustries[industry]))
	}

	if open := len(openDeals(deals)); open > strongPipeline {
		mi.Opportunities = append(mi.Opportunities, fmt.Sprintf("Strong pipeline with %d active deals", open))
	}
	return mi
}
