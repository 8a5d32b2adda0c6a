package deals

import (
	"errors"
	"net/http"
	"time"

	"github.com/crosscrm/crm/internal/analytics"
	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/pipeline"
	"github.com/crosscrm/crm/internal/store"
)

// Handler handles deal HTTP requests.
type Handler struct {
	store     *store.Store
	engine    *pipeline.Engine
	analytics *analytics.Service
}

// checkRefs verifies the contact, company and assignee a request names.
func (h *Handler) checkRefs(w http.ResponseWriter, r *http.Request, contactID, companyID, assignedTo *int64) bool {
	return api.CheckRefs(w, r,
		api.RefTo("contact_id", contactID, h.store.Contacts.Get),
		api.RefTo("company_id", companyID, h.store.Companies.Get),
		api.RefTo("assigned_to", assignedTo, h.store.Users.Get),
	)
}

// writeError maps engine errors onto responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	corrID := api.CorrelationID(r.Context())
	switch {
	case errors.Is(err, pipeline.ErrInvalidStage):
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError(err.Error(), corrID,
			[]api.ErrorDetail{{Message: err.Error(), Code: "INVALID_STAGE", In: "stage"}}))
	case errors.Is(err, pipeline.ErrTemplateNotFound):
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("Deal template not found", corrID))
	default:
		api.WriteStoreError(w, r, err, "Deal not found")
	}
}

// List handles GET /api/v1/deals.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := api.NewQuery(r)
	page := q.Page()
	f := domain.DealFilter{
		Stage:      q.Stage("stage"),
		AssignedTo: q.Int64("assigned_to"),
		ContactID:  q.Int64("contact_id"),
		MinValue:   q.Decimal("min_value"),
		MaxValue:   q.Decimal("max_value"),
		Offset:     page.Offset,
		Limit:      page.Limit,
	}
	if d := q.Date("created_after"); d != nil {
		f.CreatedGTE = &d.Time
	}
	if d := q.Date("created_before"); d != nil {
		end := d.AddDate(0, 0, 1).Add(-time.Millisecond)
		f.CreatedLTE = &end
	}
	if !q.Check(w) {
		return
	}

	deals, total, err := h.engine.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.Collection(deals, total, page))
}

// Create handles POST /api/v1/deals.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.DealInput
	if !api.Decode(w, r, &in) {
		return
	}
	if !h.checkRefs(w, r, in.ContactID, in.CompanyID, in.AssignedTo) {
		return
	}

	d, err := h.engine.Create(r.Context(), in, api.ActorID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, d)
}

// Get handles GET /api/v1/deals/{dealId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "dealId")
	if !ok {
		return
	}

	d, err := h.engine.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, d)
}

// Update handles PATCH /api/v1/deals/{dealId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "dealId")
	if !ok {
		return
	}
	var p domain.DealPatch
	if !api.Decode(w, r, &p) {
		return
	}
	if !h.checkRefs(w, r, p.ContactID, p.CompanyID, p.AssignedTo) {
		return
	}

	d, err := h.engine.Update(r.Context(), id, p, api.ActorID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, d)
}

// Delete handles DELETE /api/v1/deals/{dealId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "dealId")
	if !ok {
		return
	}

	deleted, err := h.engine.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !deleted {
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("Deal not found", api.CorrelationID(r.Context())))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type stageRequest struct {
	Stage domain.Stage `json:"stage" validate:"required,stage"`
}

// SetStage handles PUT /api/v1/deals/{dealId}/stage.
func (h *Handler) SetStage(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "dealId")
	if !ok {
		return
	}
	var req stageRequest
	if !api.Decode(w, r, &req) {
		return
	}

	d, err := h.engine.SetStage(r.Context(), id, req.Stage, api.ActorID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, d)
}

// Close handles POST /api/v1/deals/{dealId}/close.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "dealId")
	if !ok {
		return
	}
	var in domain.CloseInput
	if !api.Decode(w, r, &in) {
		return
	}

	d, err := h.engine.Close(r.Context(), id, in, api.ActorID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, d)
}

// History handles GET /api/v1/deals/{dealId}/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "dealId")
	if !ok {
		return
	}

	history, err := h.engine.History(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.Collection(history, len(history), api.Page{Limit: len(history)}))
}

// Velocity handles GET /api/v1/deals/{dealId}/velocity.
func (h *Handler) Velocity(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "dealId")
	if !ok {
		return
	}

	v, err := h.analytics.Velocity(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, v)
}

type cloneRequest struct {
	Title string `json:"title" validate:"max=255"`
}

// Clone handles POST /api/v1/deals/{dealId}/clone. The body is optional.
func (h *Handler) Clone(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "dealId")
	if !ok {
		return
	}
	var req cloneRequest
	if r.ContentLength != 0 && !api.Decode(w, r, &req) {
		return
	}

	d, err := h.engine.Clone(r.Context(), id, req.Title, api.ActorID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, d)
}

// Templates handles GET /api/v1/deal-templates.
func (h *Handler) Templates(w http.ResponseWriter, _ *http.Request) {
	t := pipeline.Templates()
	api.WriteJSON(w, http.StatusOK, api.Collection(t, len(t), api.Page{Limit: len(t)}))
}

// FromTemplate handles POST /api/v1/deal-templates/{name}/deals. Without an
// assignee in the body the deal is assigned to the acting user.
func (h *Handler) FromTemplate(w http.ResponseWriter, r *http.Request) {
	var target pipeline.TemplateTarget
	if r.ContentLength != 0 && !api.Decode(w, r, &target) {
		return
	}
	if !h.checkRefs(w, r, target.ContactID, target.CompanyID, target.AssignedTo) {
		return
	}
	if target.AssignedTo == nil {
		target.AssignedTo = api.ActorID(r.Context())
	}

	d, err := h.engine.CreateFromTemplate(r.Context(), r.PathValue("name"), target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, d)
}
