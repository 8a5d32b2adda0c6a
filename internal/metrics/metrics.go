// Package metrics holds the Prometheus collectors for the CRM.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	dealTransitions *prometheus.CounterVec
	dealMutations   *prometheus.CounterVec
	agentRuns       *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_http_requests_total",
			Help: "HTTP requests served, by method and status code.",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crm_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		dealTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_deal_transitions_total",
			Help: "Deal stage transitions, by from and to stage.",
		}, []string{"from", "to"}),
		dealMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_deal_mutations_total",
			Help: "Committed deal mutations, by operation.",
		}, []string{"op"}),
		agentRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_agent_runs_total",
			Help: "Agent runs, by agent and outcome.",
		}, []string{"agent", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.dealTransitions,
		m.dealMutations,
		m.agentRuns,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// DealTransition records a stage change.
func (m *Metrics) DealTransition(from, to string) {
	if m == nil {
		return
	}
	m.dealTransitions.WithLabelValues(from, to).Inc()
}

// DealMutation records a committed create, update, close or delete.
func (m *Metrics) DealMutation(op string) {
	if m == nil {
		return
	}
	m.dealMutations.WithLabelValues(op).Inc()
}

// AgentRun records an agent run outcome.
func (m *Metrics) AgentRun(agent, status string) {
	if m == nil {
		return
	}
	m.agentRuns.WithLabelValues(agent, status).Inc()
}
