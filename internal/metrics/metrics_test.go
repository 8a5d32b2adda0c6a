package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscrm/crm/internal/metrics"
)

func TestCollectorsAreExposed(t *testing.T) {
	m := metrics.New()
	m.ObserveRequest(http.MethodGet, http.StatusOK, 15*time.Millisecond)
	m.DealTransition("proposal", "negotiation")
	m.DealMutation("update")
	m.AgentRun("insight", "succeeded")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	for _, want := range []string{
		`crm_http_requests_total{method="GET",status="200"} 1`,
		`crm_deal_transitions_total{from="proposal",to="negotiation"} 1`,
		`crm_deal_mutations_total{op="update"} 1`,
		`crm_agent_runs_total{agent="insight",status="succeeded"} 1`,
		`crm_http_request_duration_seconds_count{method="GET"} 1`,
	} {
		assert.Contains(t, string(body), want)
	}
}

func TestCounterValues(t *testing.T) {
	m := metrics.New()
	m.DealMutation("create")
	m.DealMutation("create")

	n, err := testutil.GatherAndCount(m.Registry(), "crm_deal_mutations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	m.ObserveRequest(http.MethodPost, 500, time.Second)
	m.DealTransition("a", "b")
	m.DealMutation("delete")
	m.AgentRun("x", "failed")
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
