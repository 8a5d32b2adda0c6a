package admin_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/api/admin"
	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/pipeline"
	"github.com/crosscrm/crm/internal/store"
	"github.com/crosscrm/crm/internal/testhelpers"
)

func setup(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	s := store.New(testhelpers.NewMigratedDB(t))

	mux := http.NewServeMux()
	admin.RegisterRoutes(mux, s, pipeline.New(s))

	srv := httptest.NewServer(api.Chain(mux, api.RequestID()))
	t.Cleanup(srv.Close)
	return srv, s
}

func post(t *testing.T, url string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResetClearsDataAndReseeds(t *testing.T) {
	srv, s := setup(t)
	ctx := context.Background()
	_, err := s.Deals.Create(ctx, &domain.Deal{
		Title: "Gone soon", Value: decimal.NewFromInt(1), Currency: "USD", Stage: domain.StageProspecting,
	})
	require.NoError(t, err)

	post(t, srv.URL+"/_crm/reset")

	_, total, err := s.Deals.List(ctx, domain.DealFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	users, err := s.Users.All(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestSeedDemo(t *testing.T) {
	srv, s := setup(t)
	ctx := context.Background()

	post(t, srv.URL+"/_crm/seed")
	_, total, err := s.Deals.List(ctx, domain.DealFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	post(t, srv.URL+"/_crm/seed?demo=true")
	_, total, err = s.Deals.List(ctx, domain.DealFilter{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
}
