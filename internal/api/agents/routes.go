package agents

import (
	"net/http"

	"github.com/crosscrm/crm/internal/agent"
)

// RegisterRoutes adds all agent endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, r *agent.Runner) {
	h := &Handler{runner: r}

	mux.HandleFunc("GET /api/v1/agents", h.List)
	mux.HandleFunc("GET /api/v1/agent/runs", h.Runs)
	mux.HandleFunc("GET /api/v1/agent/runs/{runId}", h.GetRun)
	mux.HandleFunc("POST /api/v1/agent/{agent}", h.Run)
}
