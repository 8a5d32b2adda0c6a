package activities

import (
	"net/http"

	"github.com/crosscrm/crm/internal/store"
)

// RegisterRoutes adds all activity endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{store: s}

	mux.HandleFunc("GET /api/v1/activities", h.List)
	mux.HandleFunc("POST /api/v1/activities", h.Create)
	mux.HandleFunc("GET /api/v1/activities/{activityId}", h.Get)
	mux.HandleFunc("PATCH /api/v1/activities/{activityId}", h.Update)
	mux.HandleFunc("DELETE /api/v1/activities/{activityId}", h.Delete)
}
