package pipelines

import (
	"net/http"

	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/domain"
)

// Handler serves the fixed sales pipeline.
type Handler struct{}

// ListStages handles GET /api/v1/pipeline/stages.
func (h *Handler) ListStages(w http.ResponseWriter, _ *http.Request) {
	stages := domain.Pipeline()
	api.WriteJSON(w, http.StatusOK, api.Collection(stages, len(stages), api.Page{Limit: len(stages)}))
}

// GetStage handles GET /api/v1/pipeline/stages/{stage}.
func (h *Handler) GetStage(w http.ResponseWriter, r *http.Request) {
	st, err := domain.ParseStage(r.PathValue("stage"))
	if err != nil {
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("Stage not found", api.CorrelationID(r.Context())))
		return
	}
	api.WriteJSON(w, http.StatusOK, domain.Pipeline()[st.Order()])
}
