package agents

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/crosscrm/crm/internal/agent"
	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/domain"
)

// Handler handles agent HTTP requests.
type Handler struct {
	runner *agent.Runner
}

type runRequest struct {
	DealID *int64 `json:"deal_id" validate:"omitempty,gt=0"`
	UserID *int64 `json:"user_id" validate:"omitempty,gt=0"`
}

type runResponse struct {
	Run *domain.AgentRun `json:"run"`
}

// List handles GET /api/v1/agents.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	names := agent.Names()
	api.WriteJSON(w, http.StatusOK, api.Collection(names, len(names), api.Page{Limit: len(names)}))
}

// Run handles POST /api/v1/agent/{agent}. Without a user_id in the body the
// acting user is the subject of agents that need one.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())
	var req runRequest
	if r.ContentLength != 0 && !api.Decode(w, r, &req) {
		return
	}
	if req.UserID == nil {
		req.UserID = api.ActorID(r.Context())
	}

	run, err := h.runner.Run(r.Context(), agent.Request{
		Agent:  r.PathValue("agent"),
		DealID: req.DealID,
		UserID: req.UserID,
	})
	switch {
	case err == nil:
		api.WriteJSON(w, http.StatusOK, runResponse{Run: run})
	case errors.Is(err, agent.ErrUnknownAgent):
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("Agent not found", corrID))
	case errors.Is(err, agent.ErrDisabled):
		api.WriteError(w, http.StatusServiceUnavailable, api.NewUnavailableError("No language model is configured", corrID))
	case errors.Is(err, agent.ErrMissingSubject):
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError(err.Error(), corrID, nil))
	case run != nil:
		// The model call failed; the failed run is still logged.
		e := api.NewUnavailableError("Language model request failed", corrID)
		e.Errors = []api.ErrorDetail{{Message: run.Error, Code: "LLM_ERROR", In: "run " + strconv.FormatInt(run.ID, 10)}}
		api.WriteError(w, http.StatusBadGateway, e)
	default:
		api.WriteStoreError(w, r, err, "Deal or user not found")
	}
}

// Runs handles GET /api/v1/agent/runs.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	q := api.NewQuery(r)
	page := q.Page()
	if !q.Check(w) {
		return
	}

	runs, total, err := h.runner.Runs(r.Context(), domain.AgentRunFilter{
		Agent:  q.String("agent"),
		Offset: page.Offset,
		Limit:  page.Limit,
	})
	if err != nil {
		api.WriteStoreError(w, r, err, "Agent run not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, api.Collection(runs, total, page))
}

// GetRun handles GET /api/v1/agent/runs/{runId}.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "runId")
	if !ok {
		return
	}

	run, err := h.runner.GetRun(r.Context(), id)
	if err != nil {
		api.WriteStoreError(w, r, err, "Agent run not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, run)
}
