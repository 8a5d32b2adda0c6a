// Package server assembles the HTTP API: every route group, the health and
// metrics endpoints and the middleware chain.
package server

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/crosscrm/crm/internal/agent"
	"github.com/crosscrm/crm/internal/analytics"
	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/api/activities"
	"github.com/crosscrm/crm/internal/api/admin"
	"github.com/crosscrm/crm/internal/api/agents"
	"github.com/crosscrm/crm/internal/api/companies"
	"github.com/crosscrm/crm/internal/api/contacts"
	"github.com/crosscrm/crm/internal/api/deals"
	"github.com/crosscrm/crm/internal/api/exports"
	"github.com/crosscrm/crm/internal/api/imports"
	"github.com/crosscrm/crm/internal/api/market"
	"github.com/crosscrm/crm/internal/api/pipelines"
	"github.com/crosscrm/crm/internal/api/reports"
	"github.com/crosscrm/crm/internal/api/tasks"
	"github.com/crosscrm/crm/internal/api/users"
	"github.com/crosscrm/crm/internal/metrics"
	"github.com/crosscrm/crm/internal/pipeline"
	"github.com/crosscrm/crm/internal/store"
)

// Deps holds everything the routes are served from.
type Deps struct {
	Store     *store.Store
	Engine    *pipeline.Engine
	Analytics *analytics.Service
	Runner    *agent.Runner
	Metrics   *metrics.Metrics
	Log       zerolog.Logger
	AuthToken string
}

// NewHandler returns the fully wrapped API handler.
func NewHandler(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.DB.PingContext(r.Context()); err != nil {
			api.WriteError(w, http.StatusServiceUnavailable,
				api.NewUnavailableError("database unavailable", api.CorrelationID(r.Context())))
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", d.Metrics.Handler())

	deals.RegisterRoutes(mux, d.Store, d.Engine, d.Analytics)
	exports.RegisterRoutes(mux, d.Engine)
	pipelines.RegisterRoutes(mux)
	reports.RegisterRoutes(mux, d.Analytics)
	contacts.RegisterRoutes(mux, d.Store, d.Analytics)
	imports.RegisterRoutes(mux, d.Store)
	companies.RegisterRoutes(mux, d.Store)
	market.RegisterRoutes(mux, d.Store, d.Analytics)
	activities.RegisterRoutes(mux, d.Store)
	tasks.RegisterRoutes(mux, d.Store)
	users.RegisterRoutes(mux, d.Store)
	agents.RegisterRoutes(mux, d.Runner)
	admin.RegisterRoutes(mux, d.Store, d.Engine)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError(
			fmt.Sprintf("No route found for %s %s", r.Method, r.URL.Path),
			api.CorrelationID(r.Context()),
		))
	})

	return api.Chain(mux,
		api.RequestID(),
		api.Logging(d.Log, d.Metrics),
		api.Recovery(),
		api.Auth(d.AuthToken),
		api.Actor(),
		api.JSONContentType(),
	)
}
