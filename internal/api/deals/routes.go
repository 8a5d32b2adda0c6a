package deals

import (
	"net/http"

	"github.com/crosscrm/crm/internal/analytics"
	"github.com/crosscrm/crm/internal/pipeline"
	"github.com/crosscrm/crm/internal/store"
)

// RegisterRoutes adds all deal endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store, e *pipeline.Engine, a *analytics.Service) {
	h := &Handler{store: s, engine: e, analytics: a}

	mux.HandleFunc("GET /api/v1/deals", h.List)
	mux.HandleFunc("POST /api/v1/deals", h.Create)
	mux.HandleFunc("GET /api/v1/deals/{dealId}", h.Get)
	mux.HandleFunc("PATCH /api/v1/deals/{dealId}", h.Update)
	mux.HandleFunc("DELETE /api/v1/deals/{dealId}", h.Delete)
	mux.HandleFunc("PUT /api/v1/deals/{dealId}/stage", h.SetStage)
	mux.HandleFunc("POST /api/v1/deals/{dealId}/close", h.Close)
	mux.HandleFunc("GET /api/v1/deals/{dealId}/history", h.History)
	mux.HandleFunc("GET /api/v1/deals/{dealId}/velocity", h.Velocity)
	mux.HandleFunc("POST /api/v1/deals/{dealId}/clone", h.Clone)
	mux.HandleFunc("GET /api/v1/deal-templates", h.Templates)
	mux.HandleFunc("POST /api/v1/deal-templates/{name}/deals", h.FromTemplate)
}
