package companies

import (
	"net/http"

	"github.com/crosscrm/crm/internal/store"
)

// RegisterRoutes adds all company endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{store: s}

	mux.HandleFunc("GET /api/v1/companies", h.List)
	mux.HandleFunc("POST /api/v1/companies", h.Create)
	mux.HandleFunc("GET /api/v1/companies/{companyId}", h.Get)
	mux.HandleFunc("PATCH /api/v1/companies/{companyId}", h.Update)
	mux.HandleFunc("DELETE /api/v1/companies/{companyId}", h.Delete)
}
