package market

import (
	"net/http"

	"github.com/crosscrm/crm/internal/analytics"
	"github.com/crosscrm/crm/internal/store"
)

// RegisterRoutes adds the market intelligence endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store, a *analytics.Service) {
	h := &Handler{store: s, analytics: a}

	mux.HandleFunc("GET /api/v1/market-data", h.List)
	mux.HandleFunc("POST /api/v1/market-data", h.Create)
	mux.HandleFunc("GET /api/v1/market-data/{dataId}", h.Get)
	mux.HandleFunc("GET /api/v1/market/insights", h.Insights)
}
