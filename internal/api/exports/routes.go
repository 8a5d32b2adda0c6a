package exports

import (
	"net/http"

	"github.com/crosscrm/crm/internal/pipeline"
)

// RegisterRoutes adds the CSV export endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, e *pipeline.Engine) {
	h := &Handler{engine: e}

	mux.HandleFunc("GET /api/v1/deals/export", h.Deals)
}
