package tasks

import (
	"net/http"

	"github.com/crosscrm/crm/internal/store"
)

// RegisterRoutes adds all task endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{store: s}

	mux.HandleFunc("GET /api/v1/tasks", h.List)
	mux.HandleFunc("POST /api/v1/tasks", h.Create)
	mux.HandleFunc("GET /api/v1/tasks/{taskId}", h.Get)
	mux.HandleFunc("PATCH /api/v1/tasks/{taskId}", h.Update)
	mux.HandleFunc("DELETE /api/v1/tasks/{taskId}", h.Delete)
	mux.HandleFunc("POST /api/v1/tasks/{taskId}/complete", h.Complete)
}
