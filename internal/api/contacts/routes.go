package contacts

import (
	"net/http"

	"github.com/crosscrm/crm/internal/analytics"
	"github.com/crosscrm/crm/internal/store"
)

// RegisterRoutes adds all contact endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store, a *analytics.Service) {
	h := &Handler{store: s, analytics: a}

	mux.HandleFunc("GET /api/v1/contacts", h.List)
	mux.HandleFunc("POST /api/v1/contacts", h.Create)
	mux.HandleFunc("GET /api/v1/contacts/{contactId}", h.Get)
	mux.HandleFunc("PATCH /api/v1/contacts/{contactId}", h.Update)
	mux.HandleFunc("DELETE /api/v1/contacts/{contactId}", h.Delete)
	mux.HandleFunc("GET /api/v1/contacts/{contactId}/lead-score", h.LeadScore)
	mux.HandleFunc("POST /api/v1/contacts/{contactId}/lead-score", h.RefreshLeadScore)
}
