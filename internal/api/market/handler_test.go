package market_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscrm/crm/internal/analytics"
	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/api/market"
	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/store"
	"github.com/crosscrm/crm/internal/testhelpers"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := store.NewWithClock(testhelpers.NewMigratedDB(t), func() time.Time { return now })

	mux := http.NewServeMux()
	market.RegisterRoutes(mux, s, analytics.NewService(s))

	srv := httptest.NewServer(api.Chain(mux, api.RequestID()))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestMarketDataLifecycle(t *testing.T) {
	srv := setupServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/market-data",
		`{"data_type":"trend","title":"AI adoption","industry":"Software","source":"Analyst",
		  "url":"https://example.com/ai","date":"2024-06-01T00:00:00Z","metadata":{"growth":0.2}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	m := decode[domain.MarketData](t, resp)
	assert.Equal(t, domain.MarketTrend, m.DataType)
	assert.True(t, m.Date.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0.2, m.Metadata["growth"])

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/market-data",
		`{"data_type":"competitor","title":"Globex price cut","industry":"Manufacturing"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c := decode[domain.MarketData](t, resp)
	assert.True(t, c.Date.Equal(now), "date defaults to now")
	assert.Empty(t, c.Metadata)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/market-data/"+strconv.FormatInt(m.ID, 10), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "AI adoption", decode[domain.MarketData](t, resp).Title)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/market-data?data_type=competitor", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[api.CollectionResponse](t, resp).Total)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/market-data?industry=software", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[api.CollectionResponse](t, resp).Total)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/market-data", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decode[api.CollectionResponse](t, resp).Total)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/market-data/999", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Market data not found", decode[api.Error](t, resp).Message)
}

func TestMarketDataValidation(t *testing.T) {
	srv := setupServer(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing type", `{"title":"x"}`, "data_type"},
		{"unknown type", `{"data_type":"rumour","title":"x"}`, "data_type"},
		{"missing title", `{"data_type":"news"}`, "title"},
		{"bad url", `{"data_type":"news","title":"x","url":"not a url"}`, "url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+"/api/v1/market-data", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			e := decode[api.Error](t, resp)
			require.Len(t, e.Errors, 1)
			assert.Equal(t, tt.field, e.Errors[0].In)
		})
	}

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/market-data?data_type=rumour", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decode[api.Error](t, resp)
	require.Len(t, e.Errors, 1)
	assert.Equal(t, "INVALID_MARKET_DATA_TYPE", e.Errors[0].Code)
}

func TestMarketInsights(t *testing.T) {
	srv := setupServer(t)

	for _, body := range []string{
		`{"data_type":"trend","title":"AI adoption","industry":"Software"}`,
		`{"data_type":"trend","title":"Copilots","industry":"Software"}`,
		`{"data_type":"competitor","title":"Globex price cut","industry":"Manufacturing"}`,
		`{"data_type":"news","title":"Rates hold"}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, http.MethodPost, srv.URL+"/api/v1/market-data", body).StatusCode)
	}

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/market/insights", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mi := decode[analytics.MarketInsights](t, resp)
	assert.Len(t, mi.Trends, 2)
	assert.Len(t, mi.Competitors, 1)
	assert.Len(t, mi.News, 1)
	assert.Empty(t, mi.Sentiment)
	assert.Equal(t, map[string]int{"Manufacturing": 1}, mi.Competition.Industries)
	assert.Equal(t, []string{"Growing demand signalled in Software (2 trends)"}, mi.Opportunities)
}
