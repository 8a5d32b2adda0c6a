package admin

import (
	"net/http"

	"github.com/crosscrm/crm/internal/pipeline"
	"github.com/crosscrm/crm/internal/store"
)

// RegisterRoutes adds the admin endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store, e *pipeline.Engine) {
	h := &Handler{store: s, engine: e}

	mux.HandleFunc("POST /_crm/reset", h.Reset)
	mux.HandleFunc("POST /_crm/seed", h.SeedData)
}
