package activities

import (
	"net/http"

	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/store"
)

const notFound = "Activity not found"

// Handler handles activity HTTP requests.
type Handler struct {
	store *store.Store
}

func (h *Handler) refs(contactID, dealID *int64) []api.Ref {
	return []api.Ref{
		api.RefTo("contact_id", contactID, h.store.Contacts.Get),
		api.RefTo("deal_id", dealID, h.store.Deals.Get),
	}
}

// List handles GET /api/v1/activities.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := api.NewQuery(r)
	page := q.Page()
	f := domain.ActivityFilter{
		ContactID: q.Int64("contact_id"),
		DealID:    q.Int64("deal_id"),
		UserID:    q.Int64("user_id"),
		Offset:    page.Offset,
		Limit:     page.Limit,
	}
	if !q.Check(w) {
		return
	}

	activities, total, err := h.store.Activities.List(r.Context(), f)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.Collection(activities, total, page))
}

// Create handles POST /api/v1/activities. The acting user is recorded as the
// activity's owner.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.ActivityInput
	if !api.Decode(w, r, &in) {
		return
	}
	if !api.CheckRefs(w, r, h.refs(in.ContactID, in.DealID)...) {
		return
	}

	a, err := h.store.Activities.Create(r.Context(), &domain.Activity{
		Type:        in.Type,
		Subject:     in.Subject,
		Description: in.Description,
		Outcome:     in.Outcome,
		ContactID:   in.ContactID,
		DealID:      in.DealID,
		UserID:      api.ActorID(r.Context()),
		ScheduledAt: in.ScheduledAt,
		CompletedAt: in.CompletedAt,
	})
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusCreated, a)
}

// Get handles GET /api/v1/activities/{activityId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "activityId")
	if !ok {
		return
	}

	a, err := h.store.Activities.Get(r.Context(), id)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, a)
}

// Update handles PATCH /api/v1/activities/{activityId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "activityId")
	if !ok {
		return
	}
	var p domain.ActivityPatch
	if !api.Decode(w, r, &p) {
		return
	}
	if !api.CheckRefs(w, r, h.refs(p.ContactID, p.DealID)...) {
		return
	}

	a, err := h.store.Activities.Get(r.Context(), id)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Subject != nil {
		a.Subject = *p.Subject
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Outcome != nil {
		a.Outcome = *p.Outcome
	}
	if p.ContactID != nil {
		a.ContactID = p.ContactID
	}
	if p.DealID != nil {
		a.DealID = p.DealID
	}
	if p.ScheduledAt != nil {
		a.ScheduledAt = p.ScheduledAt
	}
	if p.CompletedAt != nil {
		a.CompletedAt = p.CompletedAt
	}

	a, err = h.store.Activities.Update(r.Context(), a)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, a)
}

// Delete handles DELETE /api/v1/activities/{activityId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "activityId")
	if !ok {
		return
	}

	if err := h.store.Activities.Delete(r.Context(), id); err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
