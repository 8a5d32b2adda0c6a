package reports

import (
	"net/http"

	"github.com/crosscrm/crm/internal/analytics"
)

// RegisterRoutes adds all analytics endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *analytics.Service) {
	h := &Handler{service: s}

	mux.HandleFunc("GET /api/v1/analytics/pipeline", h.Pipeline)
	mux.HandleFunc("GET /api/v1/analytics/aging", h.Aging)
	mux.HandleFunc("GET /api/v1/analytics/health", h.Health)
	mux.HandleFunc("GET /api/v1/analytics/at-risk", h.AtRisk)
	mux.HandleFunc("GET /api/v1/analytics/forecast", h.Forecast)
	mux.HandleFunc("GET /api/v1/analytics/sales", h.Sales)
	mux.HandleFunc("GET /api/v1/analytics/trends", h.Trends)
	mux.HandleFunc("GET /api/v1/analytics/salespeople", h.Salespeople)
	mux.HandleFunc("GET /api/v1/analytics/win-rate", h.WinRate)
	mux.HandleFunc("GET /api/v1/analytics/pipeline-metrics", h.PipelineMetrics)
}
