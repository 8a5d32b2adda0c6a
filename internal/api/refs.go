package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/crosscrm/crm/internal/store"
)

// Ref is an ID in a request body that must name an existing row.
type Ref struct {
	Field  string
	ID     *int64
	exists func(ctx context.Context, id int64) error
}

// RefTo builds a Ref checked with get, typically a store's Get method.
func RefTo[T any](field string, id *int64, get func(context.Context, int64) (T, error)) Ref {
	return Ref{Field: field, ID: id, exists: func(ctx context.Context, id int64) error {
		_, err := get(ctx, id)
		return err
	}}
}

// CheckRefs looks up every set reference. Missing rows produce a 400 naming
// each bad field; lookup failures produce a 500.
func CheckRefs(w http.ResponseWriter, r *http.Request, refs ...Ref) bool {
	var details []ErrorDetail
	for _, ref := range refs {
		if ref.ID == nil {
			continue
		}
		err := ref.exists(r.Context(), *ref.ID)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound):
			details = append(details, ErrorDetail{
				Message: ref.Field + " does not exist",
				Code:    "INVALID_REFERENCE",
				In:      ref.Field,
			})
		default:
			WriteStoreError(w, r, err, "")
			return false
		}
	}
	if len(details) > 0 {
		WriteError(w, http.StatusBadRequest, NewValidationError("Invalid input", CorrelationID(r.Context()), details))
		return false
	}
	return true
}
