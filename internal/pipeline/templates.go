package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/crosscrm/crm/internal/domain"
)

// ErrTemplateNotFound is returned for an unknown template name.
var ErrTemplateNotFound = errors.New("deal template not found")

// Template is a reusable starting point for a new deal.
type Template struct {
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Stage       domain.Stage    `json:"stage"`
	Probability int             `json:"probability"`
}

var templates = map[string]Template{
	"enterprise_license": {
		Title:       "Enterprise License",
		Description: "Annual enterprise software license",
		Value:       decimal.NewFromInt(50000),
		Stage:       domain.StageQualification,
		Probability: 50,
	},
	"support_contract": {
		Title:       "Annual Support Contract",
		Description: "12-month technical support and maintenance",
		Value:       decimal.NewFromInt(25000),
		Stage:       domain.StageProposal,
		Probability: 60,
	},
	"custom_development": {
		Title:       "Custom Development Project",
		Description: "Custom software development project",
		Value:       decimal.NewFromInt(75000),
		Stage:       domain.StageProspecting,
		Probability: 40,
	},
	"consulting": {
		Title:       "Consulting Services",
		Description: "Professional consulting engagement",
		Value:       decimal.NewFromInt(15000),
		Stage:       domain.StageQualification,
		Probability: 55,
	},
}

// Templates returns the built-in templates sorted by name.
func Templates() []Template {
	out := make([]Template, 0, len(templates))
	for name, t := range templates {
		t.Name = name
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TemplateTarget holds the associations for a deal created from a template.
type TemplateTarget struct {
	ContactID  *int64 `json:"contact_id"`
	CompanyID  *int64 `json:"company_id"`
	AssignedTo *int64 `json:"assigned_to"`
}

// CreateFromTemplate creates a deal from the named template. The assignee is
// recorded as the acting user.
func (e *Engine) CreateFromTemplate(ctx context.Context, name string, target TemplateTarget) (*domain.Deal, error) {
	t, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return e.Create(ctx, domain.DealInput{
		Title:       t.Title,
		Description: t.Description,
		Value:       t.Value,
		Stage:       t.Stage,
		Probability: t.Probability,
		ContactID:   target.ContactID,
		CompanyID:   target.CompanyID,
		AssignedTo:  target.AssignedTo,
	}, target.AssignedTo)
}

// Clone copies a deal into a new prospecting deal with a derived
// probability. An empty title becomes "<original title> (Copy)". Without an
// actor the clone is attributed to the original's assignee.
func (e *Engine) Clone(ctx context.Context, id int64, title string, actor *int64) (*domain.Deal, error) {
	src, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = src.Title + " (Copy)"
	}
	if actor == nil {
		actor = src.AssignedTo
	}
	return e.Create(ctx, domain.DealInput{
		Title:       title,
		Description: src.Description,
		Value:       src.Value,
		Currency:    src.Currency,
		Stage:       domain.StageProspecting,
		ContactID:   src.ContactID,
		CompanyID:   src.CompanyID,
		AssignedTo:  src.AssignedTo,
	}, actor)
}
