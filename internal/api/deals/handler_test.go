package deals_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscrm/crm/internal/analytics"
	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/api/deals"
	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/pipeline"
	"github.com/crosscrm/crm/internal/store"
	"github.com/crosscrm/crm/internal/testhelpers"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := store.New(testhelpers.NewMigratedDB(t))

	mux := http.NewServeMux()
	deals.RegisterRoutes(mux, s, pipeline.New(s), analytics.NewService(s))

	srv := httptest.NewServer(api.Chain(mux, api.RequestID(), api.Actor()))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.ActorHeader, "7")
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

func createDeal(t *testing.T, srv *httptest.Server, body string) domain.Deal {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/api/v1/deals", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[domain.Deal](t, resp)
}

func TestCreateAndGetDeal(t *testing.T) {
	srv := setupServer(t)

	d := createDeal(t, srv, `{"title":"Acme renewal","value":"12000","stage":"proposal","probability":50}`)
	assert.Equal(t, "Acme renewal", d.Title)
	assert.Equal(t, domain.StageProposal, d.Stage)
	assert.Equal(t, "USD", d.Currency)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/deals/"+itoa(d.ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[domain.Deal](t, resp)
	assert.Equal(t, d.ID, got.ID)
	assert.True(t, got.Value.Equal(d.Value))
}

func TestCreateDealValidation(t *testing.T) {
	srv := setupServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/deals", `{"value":"-5","stage":"won"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	e := decode[api.Error](t, resp)
	assert.Equal(t, "VALIDATION_ERROR", e.Category)
	fields := map[string]bool{}
	for _, d := range e.Errors {
		fields[d.In] = true
	}
	assert.True(t, fields["title"])
	assert.True(t, fields["value"])
	assert.True(t, fields["stage"])
}

func TestGetDealNotFound(t *testing.T) {
	srv := setupServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/deals/999", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/deals/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListDealsFiltersAndPages(t *testing.T) {
	srv := setupServer(t)
	createDeal(t, srv, `{"title":"A","value":"100","stage":"prospecting"}`)
	createDeal(t, srv, `{"title":"B","value":"5000","stage":"proposal"}`)
	createDeal(t, srv, `{"title":"C","value":"9000","stage":"proposal"}`)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/deals?stage=proposal&limit=1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[api.CollectionResponse](t, resp)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Results, 1)
	require.NotNil(t, page.Paging)
	assert.Equal(t, "1", page.Paging.Next.After)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/deals?min_value=1000&max_value=6000", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[api.CollectionResponse](t, resp)
	assert.Equal(t, 1, page.Total)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/deals?stage=bogus", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSetStageRecordsHistory(t *testing.T) {
	srv := setupServer(t)
	d := createDeal(t, srv, `{"title":"Move me","value":"1000","stage":"prospecting"}`)
	id := itoa(d.ID)

	resp := do(t, http.MethodPut, srv.URL+"/api/v1/deals/"+id+"/stage", `{"stage":"negotiation"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moved := decode[domain.Deal](t, resp)
	assert.Equal(t, domain.StageNegotiation, moved.Stage)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/deals/"+id+"/history", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[struct {
		Results []domain.DealHistory `json:"results"`
	}](t, resp)
	require.NotEmpty(t, history.Results)
	last := history.Results[len(history.Results)-1]
	require.NotNil(t, last.NewStage)
	assert.Equal(t, domain.StageNegotiation, *last.NewStage)
	require.NotNil(t, last.ChangedBy)
	assert.EqualValues(t, 7, *last.ChangedBy)

	resp = do(t, http.MethodPut, srv.URL+"/api/v1/deals/"+id+"/stage", `{"stage":"nowhere"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCloseDeal(t *testing.T) {
	srv := setupServer(t)
	d := createDeal(t, srv, `{"title":"Closer","value":"1000","stage":"negotiation"}`)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/deals/"+itoa(d.ID)+"/close", `{"won":true,"actual_close_date":"2024-05-01"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	closed := decode[domain.Deal](t, resp)
	assert.Equal(t, domain.StageClosedWon, closed.Stage)
	require.NotNil(t, closed.ActualCloseDate)
	assert.Equal(t, "2024-05-01", closed.ActualCloseDate.String())
}

func TestUpdateAndDeleteDeal(t *testing.T) {
	srv := setupServer(t)
	d := createDeal(t, srv, `{"title":"Old","value":"1000"}`)
	id := itoa(d.ID)

	resp := do(t, http.MethodPatch, srv.URL+"/api/v1/deals/"+id, `{"title":"New","value":"2500"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[domain.Deal](t, resp)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "2500", updated.Value.String())

	resp = do(t, http.MethodDelete, srv.URL+"/api/v1/deals/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/api/v1/deals/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVelocity(t *testing.T) {
	srv := setupServer(t)
	d := createDeal(t, srv, `{"title":"Fast","value":"1000","stage":"qualification"}`)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/deals/"+itoa(d.ID)+"/velocity", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decode[analytics.Velocity](t, resp)
	assert.Equal(t, d.ID, v.DealID)
	assert.Equal(t, "qualification", v.CurrentStage)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/deals/404/velocity", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCloneDeal(t *testing.T) {
	srv := setupServer(t)
	d := createDeal(t, srv, `{"title":"Original","value":"3000","stage":"proposal"}`)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/deals/"+itoa(d.ID)+"/clone", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	clone := decode[domain.Deal](t, resp)
	assert.NotEqual(t, d.ID, clone.ID)
	assert.Equal(t, "Original (Copy)", clone.Title)
	assert.Equal(t, domain.StageProspecting, clone.Stage)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/deals/"+itoa(d.ID)+"/clone", `{"title":"Second go"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Second go", decode[domain.Deal](t, resp).Title)
}

func TestDealTemplates(t *testing.T) {
	srv := setupServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/deal-templates", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Results []pipeline.Template `json:"results"`
	}](t, resp)
	require.Len(t, list.Results, 4)
	assert.Equal(t, "consulting", list.Results[0].Name)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/deal-templates/support_contract/deals", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decode[domain.Deal](t, resp)
	assert.Equal(t, "Annual Support Contract", d.Title)
	require.NotNil(t, d.AssignedTo)
	assert.EqualValues(t, 7, *d.AssignedTo)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/deal-templates/nope/deals", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDealReferencesMustExist(t *testing.T) {
	srv := setupServer(t)
	d := createDeal(t, srv, `{"title":"Acme renewal","value":"1000"}`)

	cases := []struct {
		name, method, path, body, field string
	}{
		{"create contact", http.MethodPost, "/api/v1/deals", `{"title":"X","value":"1","contact_id":999}`, "contact_id"},
		{"create assignee", http.MethodPost, "/api/v1/deals", `{"title":"X","value":"1","assigned_to":999}`, "assigned_to"},
		{"update contact", http.MethodPatch, "/api/v1/deals/" + itoa(d.ID), `{"contact_id":999}`, "contact_id"},
		{"template company", http.MethodPost, "/api/v1/deal-templates/consulting/deals", `{"company_id":999}`, "company_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, tc.method, srv.URL+tc.path, tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			apiErr := decode[api.Error](t, resp)
			assert.Equal(t, api.CategoryValidationError, apiErr.Category)
			require.Len(t, apiErr.Errors, 1)
			assert.Equal(t, "INVALID_REFERENCE", apiErr.Errors[0].Code)
			assert.Equal(t, tc.field, apiErr.Errors[0].In)
		})
	}

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/deals", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Total int `json:"total"`
	}](t, resp)
	assert.Equal(t, 1, list.Total)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/deals/"+itoa(d.ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decode[domain.Deal](t, resp).ContactID)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
