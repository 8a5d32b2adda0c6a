package companies

import (
	"net/http"

	"github.com/crosscrm/crm/internal/api"
	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/store"
)

const notFound = "Company not found"

// Handler handles company HTTP requests.
type Handler struct {
	store *store.Store
}

// List handles GET /api/v1/companies.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := api.NewQuery(r)
	page := q.Page()
	if !q.Check(w) {
		return
	}

	companies, total, err := h.store.Companies.List(r.Context(), domain.CompanyFilter{
		Search: q.String("search"),
		Offset: page.Offset,
		Limit:  page.Limit,
	})
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.Collection(companies, total, page))
}

// Create handles POST /api/v1/companies.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.CompanyInput
	if !api.Decode(w, r, &in) {
		return
	}

	c, err := h.store.Companies.Create(r.Context(), &domain.Company{
		Name:          in.Name,
		Industry:      in.Industry,
		Website:       in.Website,
		Address:       in.Address,
		EmployeeCount: in.EmployeeCount,
		AnnualRevenue: in.AnnualRevenue,
	})
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusCreated, c)
}

// Get handles GET /api/v1/companies/{companyId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "companyId")
	if !ok {
		return
	}

	c, err := h.store.Companies.Get(r.Context(), id)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, c)
}

// Update handles PATCH /api/v1/companies/{companyId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "companyId")
	if !ok {
		return
	}
	var p domain.CompanyPatch
	if !api.Decode(w, r, &p) {
		return
	}

	c, err := h.store.Companies.Get(r.Context(), id)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Industry != nil {
		c.Industry = *p.Industry
	}
	if p.Website != nil {
		c.Website = *p.Website
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.EmployeeCount != nil {
		c.EmployeeCount = p.EmployeeCount
	}
	if p.AnnualRevenue != nil {
		c.AnnualRevenue = p.AnnualRevenue
	}

	c, err = h.store.Companies.Update(r.Context(), c)
	if err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/v1/companies/{companyId}. Contacts and deals
// of the company are kept and lose the association.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r, "companyId")
	if !ok {
		return
	}

	if err := h.store.Companies.Delete(r.Context(), id); err != nil {
		api.WriteStoreError(w, r, err, notFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
