package users

import (
	"net/http"
	"strconv"

	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/store"
)

const notFound = "User not found"

// Handler handles user HTTP requests.
type Handler struct {
	store *store.Store
}

// List handles GET /api/v1/users. Users are paged by ID cursor; after is the
// last ID of the previous page.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := api.NewQuery(r)
	limit := q.Int("limit", api.DefaultLimit)
	var after int64
	if v := q.Int64("after"); v != nil {
		after = *v
	}
	if !q.Check(w) {
		return
	}
	if limit <= 0 || limit > api.MaxLimit {
		limit = api.DefaultLimit
	}

	users, hasMore, next, err := h.store.Users.List(r.Context(), limit, after, q.String("email"))
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}

	resp := api.Collection(users, len(users), api.Page{Limit: limit})
	if hasMore {
		resp.Paging = &api.Paging{
			Next: &api.PagingNext{After: strconv.FormatInt(next, 10)},
		}
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/users/{userId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "userId")
	if !ok {
		return
	}

	u, err := h.store.Users.Get(r.Context(), id)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, u)
}

type createRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// Create handles POST /api/v1/users. A taken email is a conflict.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !api.Decode(w, r, &req) {
		return
	}

	u, err := h.store.Users.Create(r.Context(), req.Email, req.FirstName, req.LastName)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusCreated, u)
}
