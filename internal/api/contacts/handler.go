package contacts

import (
	"context"
	"net/http"

	"github.com/crosscrm/crm/internal/analytics"
	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/store"
)

const notFound = "Contact not found"

// Handler handles contact HTTP requests.
type Handler struct {
	store     *store.Store
	analytics *analytics.Service
}

// List handles GET /api/v1/contacts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := api.NewQuery(r)
	page := q.Page()
	f := domain.ContactFilter{
		Search:    q.String("search"),
		CompanyID: q.Int64("company_id"),
		Offset:    page.Offset,
		Limit:     page.Limit,
	}
	if !q.Check(w) {
		return
	}

	contacts, total, err := h.store.Contacts.List(r.Context(), f)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.Collection(contacts, total, page))
}

// Create handles POST /api/v1/contacts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.ContactInput
	if !api.Decode(w, r, &in) {
		return
	}
	if !api.CheckRefs(w, r, api.RefTo("company_id", in.CompanyID, h.store.Companies.Get)) {
		return
	}

	c, err := h.store.Contacts.Create(r.Context(), &domain.Contact{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		JobTitle:       in.JobTitle,
		CompanyID:      in.CompanyID,
		Tags:           in.Tags,
		LeadSource:     in.LeadSource,
		LifecycleStage: in.LifecycleStage,
		CreatedBy:      api.ActorID(r.Context()),
	})
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusCreated, c)
}

// Get handles GET /api/v1/contacts/{contactId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "contactId")
	if !ok {
		return
	}

	c, err := h.store.Contacts.Get(r.Context(), id)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, c)
}

// Update handles PATCH /api/v1/contacts/{contactId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "contactId")
	if !ok {
		return
	}
	var p domain.ContactPatch
	if !api.Decode(w, r, &p) {
		return
	}
	if !api.CheckRefs(w, r, api.RefTo("company_id", p.CompanyID, h.store.Companies.Get)) {
		return
	}

	c, err := h.store.Contacts.Get(r.Context(), id)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	apply(c, p)

	c, err = h.store.Contacts.Update(r.Context(), c)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/v1/contacts/{contactId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "contactId")
	if !ok {
		return
	}

	if err := h.store.Contacts.Delete(r.Context(), id); err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LeadScore handles GET /api/v1/contacts/{contactId}/lead-score.
func (h *Handler) LeadScore(w http.ResponseWriter, r *http.Request) {
	h.leadScore(w, r, h.analytics.LeadScore)
}

// RefreshLeadScore handles POST /api/v1/contacts/{contactId}/lead-score,
// which also stores the new score on the contact.
func (h *Handler) RefreshLeadScore(w http.ResponseWriter, r *http.Request) {
	h.leadScore(w, r, h.analytics.RefreshLeadScore)
}

func (h *Handler) leadScore(w http.ResponseWriter, r *http.Request, score func(context.Context, int64) (analytics.LeadScore, error)) {
	id, ok := api.PathID(w, r, "contactId")
	if !ok {
		return
	}

	s, err := score(r.Context(), id)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, s)
}

func apply(c *domain.Contact, p domain.ContactPatch) {
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.JobTitle != nil {
		c.JobTitle = *p.JobTitle
	}
	if p.CompanyID != nil {
		c.CompanyID = p.CompanyID
	}
	if p.Tags != nil {
		c.Tags = *p.Tags
	}
	if p.LeadSource != nil {
		c.LeadSource = *p.LeadSource
	}
	if p.LifecycleStage != nil {
		c.LifecycleStage = *p.LifecycleStage
	}
}
