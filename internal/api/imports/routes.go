package imports

import (
	"net/http"

	"github.com/crosscrm/crm/internal/store"
)

// RegisterRoutes adds the CSV import endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{store: s}

	mux.HandleFunc("POST /api/v1/contacts/import", h.Contacts)
}
