package market

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/crosscrm/crm/internal/analytics"
	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/store"
)

const notFound = "Market data not found"

// Handler handles market intelligence HTTP requests.
type Handler struct {
	store     *store.Store
	analytics *analytics.Service
}

// List handles GET /api/v1/market-data.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := api.NewQuery(r)
	f := domain.MarketDataFilter{
		DataType: q.MarketDataType("data_type"),
		Industry: q.String("industry"),
		Region:   q.String("region"),
	}
	page := q.Page()
	if !q.Check(w) {
		return
	}
	f.Offset, f.Limit = page.Offset, page.Limit

	rows, total, err := h.store.Market.List(r.Context(), f)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.Collection(rows, total, page))
}

// Create handles POST /api/v1/market-data.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.MarketDataInput
	if !api.Decode(w, r, &in) {
		return
	}

	m := &domain.MarketData{
		DataType:    in.DataType,
		Title:       in.Title,
		Description: in.Description,
		Source:      in.Source,
		URL:         in.URL,
		Industry:    in.Industry,
		Region:      in.Region,
		Metadata:    in.Metadata,
	}
	if in.Date != nil {
		m.Date = *in.Date
	}

	m, err := h.store.Market.Create(r.Context(), m)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	zerolog.Ctx(r.Context()).Info().
		Int64("market_data_id", m.ID).
		Str("data_type", string(m.DataType)).
		Msg("market data recorded")
	api.WriteJSON(w, http.StatusCreated, m)
}

// Get handles GET /api/v1/market-data/{dataId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "dataId")
	if !ok {
		return
	}

	m, err := h.store.Market.Get(r.Context(), id)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, m)
}

// Insights handles GET /api/v1/market/insights.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	mi, err := h.analytics.MarketInsights(r.Context())
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, mi)
}
