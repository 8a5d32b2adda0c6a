// Package reports serves the pipeline analytics over HTTP.
package reports

import (
	"net/http"

	"github.com/crosscrm/crm/internal/analytics"
	"github.com/crosscrm/crm/internal/api"
)

// maxDays bounds the forecast and trend horizons.
const maxDays = 3650

// Handler handles analytics HTTP requests.
type Handler struct {
	service *analytics.Service
}

// respond writes v, or the store error that produced it.
func respond[T any](w http.ResponseWriter, r *http.Request, v T, err error) {
	if err != nil {
		api.WriteStoreError(w, r, err, "Deal not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, v)
}

// days reads the horizon parameter. Zero means the service default.
func days(w http.ResponseWriter, r *http.Request) (int, bool) {
	q := api.NewQuery(r)
	n := q.Int("days", 0)
	if !q.Check(w) {
		return 0, false
	}
	if n < 0 || n > maxDays {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("days is out of range",
			api.CorrelationID(r.Context()),
			[]api.ErrorDetail{{Message: "days must be between 0 and 3650", Code: "INVALID_RANGE", In: "days"}}))
		return 0, false
	}
	return n, true
}

// Pipeline handles GET /api/v1/analytics/pipeline.
func (h *Handler) Pipeline(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.PipelineSummary(r.Context())
	respond(w, r, v, err)
}

// Aging handles GET /api/v1/analytics/aging.
func (h *Handler) Aging(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Aging(r.Context())
	respond(w, r, v, err)
}

// Health handles GET /api/v1/analytics/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Health(r.Context())
	respond(w, r, v, err)
}

// AtRisk handles GET /api/v1/analytics/at-risk.
func (h *Handler) AtRisk(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.AtRisk(r.Context())
	if err != nil {
		respond(w, r, v, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.Collection(v, len(v), api.Page{Limit: len(v)}))
}

// Forecast handles GET /api/v1/analytics/forecast?days=N.
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	n, ok := days(w, r)
	if !ok {
		return
	}
	v, err := h.service.Forecast(r.Context(), n)
	respond(w, r, v, err)
}

// Sales handles GET /api/v1/analytics/sales?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	q := api.NewQuery(r)
	start, end := q.Date("start"), q.Date("end")
	if !q.Check(w) {
		return
	}
	v, err := h.service.SalesMetrics(r.Context(), start, end)
	respond(w, r, v, err)
}

// Trends handles GET /api/v1/analytics/trends?days=N.
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	n, ok := days(w, r)
	if !ok {
		return
	}
	v, err := h.service.SalesTrends(r.Context(), n)
	if err != nil {
		respond(w, r, v, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.Collection(v, len(v), api.Page{Limit: len(v)}))
}

// Salespeople handles GET /api/v1/analytics/salespeople.
func (h *Handler) Salespeople(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Performance(r.Context())
	if err != nil {
		respond(w, r, v, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.Collection(v, len(v), api.Page{Limit: len(v)}))
}

// WinRate handles GET /api/v1/analytics/win-rate.
func (h *Handler) WinRate(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.WinRate(r.Context())
	respond(w, r, v, err)
}

// PipelineMetrics handles GET /api/v1/analytics/pipeline-metrics.
func (h *Handler) PipelineMetrics(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.PipelineMetrics(r.Context())
	respond(w, r, v, err)
}
