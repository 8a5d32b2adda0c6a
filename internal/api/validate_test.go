package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/domain"
)

func fields(details []api.ErrorDetail) map[string]string {
	out := make(map[string]string, len(details))
	for _, d := range details {
		out[d.In] = d.Code
	}
	return out
}

func TestValidateDealInput(t *testing.T) {
	ok := domain.DealInput{Title: "Deal", Value: decimal.NewFromInt(10), Stage: domain.StageProposal, Probability: 50}
	assert.Empty(t, api.Validate(&ok))

	bad := domain.DealInput{
		Value:       decimal.NewFromInt(-1),
		Stage:       "won",
		Probability: 101,
	}
	assert.Equal(t, map[string]string{
		"title":       "INVALID_REQUIRED",
		"value":       "INVALID_GTE",
		"stage":       "INVALID_STAGE",
		"probability": "INVALID_LTE",
	}, fields(api.Validate(&bad)))
}

func TestValidatePatchPointers(t *testing.T) {
	stage := domain.Stage("nope")
	neg := decimal.RequireFromString("-0.01")
	p := domain.DealPatch{Stage: &stage, Value: &neg}
	assert.Equal(t, map[string]string{
		"stage": "INVALID_STAGE",
		"value": "INVALID_GTE",
	}, fields(api.Validate(&p)))

	assert.Empty(t, api.Validate(&domain.DealPatch{}))
}

func TestValidateEnums(t *testing.T) {
	a := domain.ActivityInput{Type: "fax", Subject: "hi"}
	assert.Contains(t, fields(api.Validate(&a)), "type")

	status := domain.TaskStatus("stalled")
	priority := domain.TaskPriority("asap")
	p := domain.TaskPatch{Status: &status, Priority: &priority}
	assert.Equal(t, map[string]string{
		"status":   "INVALID_TASK_STATUS",
		"priority": "INVALID_TASK_PRIORITY",
	}, fields(api.Validate(&p)))
}

func TestDecode(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in domain.DealInput
		if !api.Decode(w, r, &in) {
			return
		}
		api.WriteJSON(w, http.StatusOK, in)
	})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"title": "Deal", "value": "12.50", "stage": "qualification"}`, http.StatusOK},
		{"numeric value", `{"title": "Deal", "value": 12.5}`, http.StatusOK},
		{"empty", ``, http.StatusBadRequest},
		{"malformed", `{"title": `, http.StatusBadRequest},
		{"invalid", `{"title": "", "value": "1"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			if tt.status != http.StatusOK {
				var e api.Error
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
				assert.Equal(t, api.CategoryValidationError, e.Category)
			}
		})
	}
}
