package pipeline

import "github.com/crosscrm/crm/internal/domain"

// applyFields copies the untracked patch fields onto d and reports whether
// any of them changed.
func applyFields(d *domain.Deal, p domain.DealPatch) bool {
	changed := false
	changed = setValue(&d.Title, p.Title) || changed
	changed = setValue(&d.Description, p.Description) || changed
	changed = setValue(&d.Currency, p.Currency) || changed
	changed = setRef(&d.ContactID, p.ContactID) || changed
	changed = setRef(&d.CompanyID, p.CompanyID) || changed
	changed = setRef(&d.AssignedTo, p.AssignedTo) || changed

	if p.ExpectedCloseDate != nil && !p.ExpectedCloseDate.IsZero() {
		if d.ExpectedCloseDate == nil || d.ExpectedCloseDate.String() != p.ExpectedCloseDate.String() {
			v := *p.ExpectedCloseDate
			d.ExpectedCloseDate = &v
			changed = true
		}
	}
	return changed
}

func setValue[T comparable](dst *T, src *T) bool {
	if src == nil || *dst == *src {
		return false
	}
	*dst = *src
	return true
}

func setRef[T comparable](dst **T, src *T) bool {
	if src == nil || (*dst != nil && **dst == *src) {
		return false
	}
	v := *src
	*dst = &v
	return true
}
