package tasks

import (
	"net/http"

	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/store"
)

const notFound = "Task not found"

// Handler handles task HTTP requests.
type Handler struct {
	store *store.Store
}

func (h *Handler) refs(assignee, contactID, dealID *int64) []api.Ref {
	return []api.Ref{
		api.RefTo("assigned_to", assignee, h.store.Users.Get),
		api.RefTo("related_contact_id", contactID, h.store.Contacts.Get),
		api.RefTo("related_deal_id", dealID, h.store.Deals.Get),
	}
}

// List handles GET /api/v1/tasks.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := api.NewQuery(r)
	page := q.Page()
	f := domain.TaskFilter{
		AssignedTo: q.Int64("assigned_to"),
		Offset:     page.Offset,
		Limit:      page.Limit,
	}
	if v := q.String("status"); v != "" {
		s := domain.TaskStatus(v)
		f.Status = &s
	}
	if v := q.String("priority"); v != "" {
		p := domain.TaskPriority(v)
		f.Priority = &p
	}
	if !q.Check(w) {
		return
	}
	var details []api.ErrorDetail
	if f.Status != nil && !f.Status.Valid() {
		details = append(details, api.ErrorDetail{Message: "unknown task status", Code: "INVALID_STATUS", In: "status"})
	}
	if f.Priority != nil && !f.Priority.Valid() {
		details = append(details, api.ErrorDetail{Message: "unknown task priority", Code: "INVALID_PRIORITY", In: "priority"})
	}
	if len(details) > 0 {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid query parameters",
			api.CorrelationID(r.Context()), details))
		return
	}

	tasks, total, err := h.store.Tasks.List(r.Context(), f)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.Collection(tasks, total, page))
}

// Create handles POST /api/v1/tasks. The acting user is recorded as the
// creator; without one the task counts as self-assigned.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.TaskInput
	if !api.Decode(w, r, &in) {
		return
	}
	if !api.CheckRefs(w, r, h.refs(&in.AssignedTo, in.RelatedContactID, in.RelatedDealID)...) {
		return
	}

	t := &domain.Task{
		Title:            in.Title,
		Description:      in.Description,
		Priority:         in.Priority,
		Status:           in.Status,
		DueDate:          in.DueDate,
		AssignedTo:       in.AssignedTo,
		CreatedBy:        in.AssignedTo,
		RelatedContactID: in.RelatedContactID,
		RelatedDealID:    in.RelatedDealID,
	}
	if actor := api.ActorID(r.Context()); actor != nil {
		t.CreatedBy = *actor
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if t.Status == "" {
		t.Status = domain.TaskPending
	}

	t, err := h.store.Tasks.Create(r.Context(), t)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusCreated, t)
}

// Get handles GET /api/v1/tasks/{taskId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "taskId")
	if !ok {
		return
	}

	t, err := h.store.Tasks.Get(r.Context(), id)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, t)
}

// Update handles PATCH /api/v1/tasks/{taskId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "taskId")
	if !ok {
		return
	}
	var p domain.TaskPatch
	if !api.Decode(w, r, &p) {
		return
	}
	if !api.CheckRefs(w, r, h.refs(p.AssignedTo, p.RelatedContactID, p.RelatedDealID)...) {
		return
	}

	t, err := h.store.Tasks.Get(r.Context(), id)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	apply(t, p)
	switch {
	case t.Status == domain.TaskCompleted && t.CompletedAt == nil:
		now := h.store.Now()
		t.CompletedAt = &now
	case t.Status != domain.TaskCompleted:
		t.CompletedAt = nil
	}

	t, err = h.store.Tasks.Update(r.Context(), t)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, t)
}

// Complete handles POST /api/v1/tasks/{taskId}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "taskId")
	if !ok {
		return
	}

	t, err := h.store.Tasks.Complete(r.Context(), id)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/v1/tasks/{taskId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "taskId")
	if !ok {
		return
	}

	if err := h.store.Tasks.Delete(r.Context(), id); err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func apply(t *domain.Task, p domain.TaskPatch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.RelatedContactID != nil {
		t.RelatedContactID = p.RelatedContactID
	}
	if p.RelatedDealID != nil {
		t.RelatedDealID = p.RelatedDealID
	}
}
