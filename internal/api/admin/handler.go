package admin

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/pipeline"
	"github.com/crosscrm/crm/internal/seed"
	"github.com/crosscrm/crm/internal/store"
)

// Handler serves the admin API at /_crm/.
type Handler struct {
	store  *store.Store
	engine *pipeline.Engine
}

type status struct {
	Status string `json:"status"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	zerolog.Ctx(r.Context()).Error().Err(err).Msg(msg)
	api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(msg, api.CorrelationID(r.Context())))
}

// Reset deletes all data and re-runs the seeds.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.store.Reset(ctx); err != nil {
		h.fail(w, r, err, "failed to clear data")
		return
	}
	if err := seed.Seed(ctx, h.store); err != nil {
		h.fail(w, r, err, "failed to re-seed")
		return
	}

	api.WriteJSON(w, http.StatusOK, status{Status: "ok"})
}

// SeedData runs the seeds without dropping existing data first. With
// ?demo=true an empty database also gets the demo pipeline.
func (h *Handler) SeedData(w http.ResponseWriter, r *http.Request) {
	var err error
	if r.URL.Query().Get("demo") == "true" {
		err = seed.All(r.Context(), h.store, h.engine)
	} else {
		err = seed.Seed(r.Context(), h.store)
	}
	if err != nil {
		h.fail(w, r, err, "failed to seed")
		return
	}

	api.WriteJSON(w, http.StatusOK, status{Status: "ok"})
}
