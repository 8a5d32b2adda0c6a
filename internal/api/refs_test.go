package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/store"
)

func lookup(known ...int64) func(context.Context, int64) (string, error) {
	return func(_ context.Context, id int64) (string, error) {
		for _, k := range known {
			if k == id {
				return "ok", nil
			}
		}
		return "", store.ErrNotFound
	}
}

func TestCheckRefs(t *testing.T) {
	one, two := int64(1), int64(2)

	t.Run("all present", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		ok := api.CheckRefs(w, r,
			api.RefTo("contact_id", &one, lookup(1)),
			api.RefTo("deal_id", nil, lookup()),
		)
		assert.True(t, ok)
	})

	t.Run("missing rows are a validation error", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		ok := api.CheckRefs(w, r,
			api.RefTo("contact_id", &two, lookup(1)),
			api.RefTo("company_id", &one, lookup()),
		)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"in":"contact_id"`)
		assert.Contains(t, w.Body.String(), `"in":"company_id"`)
	})

	t.Run("lookup failure is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		broken := func(context.Context, int64) (int, error) { return 0, errors.New("db down") }
		require.False(t, api.CheckRefs(w, r, api.RefTo("deal_id", &one, broken)))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
