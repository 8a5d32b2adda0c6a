package domain

import "time"

// MarketDataType classifies a market intelligence entry.
type MarketDataType string

const (
	MarketTrend      MarketDataType = "trend"
	MarketCompetitor MarketDataType = "competitor"
	MarketNews       MarketDataType = "news"
	MarketSentiment  MarketDataType = "sentiment"
)

// Valid reports whether t is a known type.
func (t MarketDataType) Valid() bool {
	switch t {
	case MarketTrend, MarketCompetitor, MarketNews, MarketSentiment:
		return true
	}
	return false
}

// MarketData is an external observation about the market: a trend, a
// competitor move, a news item or a sentiment reading.
type MarketData struct {
	ID          int64          `json:"id"`
	DataType    MarketDataType `json:"data_type"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Source      string         `json:"source,omitempty"`
	URL         string         `json:"url,omitempty"`
	Industry    string         `json:"industry,omitempty"`
	Region      string         `json:"region,omitempty"`
	Date        time.Time      `json:"date"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}

// MarketDataInput creates a market data entry. Date defaults to now.
type MarketDataInput struct {
	DataType    MarketDataType `json:"data_type" validate:"required,market_data_type"`
	Title       string         `json:"title" validate:"required,max=255"`
	Description string         `json:"description"`
	Source      string         `json:"source" validate:"max=255"`
	URL         string         `json:"url" validate:"omitempty,url"`
	Industry    string         `json:"industry" validate:"max=100"`
	Region      string         `json:"region" validate:"max=100"`
	Date        *time.Time     `json:"date"`
	Metadata    map[string]any `json:"metadata"`
}

// MarketDataFilter narrows a market data listing. Industry and region match
// case-insensitively.
type MarketDataFilter struct {
	DataType *MarketDataType
	Industry string
	Region   string
	Offset   int
	Limit    int
}
