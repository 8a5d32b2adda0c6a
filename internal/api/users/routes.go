package users

import (
	"net/http"

	"github.com/crosscrm/crm/internal/store"
)

// RegisterRoutes adds all user endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{store: s}

	mux.HandleFunc("GET /api/v1/users", h.List)
	mux.HandleFunc("POST /api/v1/users", h.Create)
	mux.HandleFunc("GET /api/v1/users/{userId}", h.Get)
}
