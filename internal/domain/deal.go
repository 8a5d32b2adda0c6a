package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deal is a sales opportunity.
type Deal struct {
	ID                int64           `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	Value             decimal.Decimal `json:"value"`
	Currency          string          `json:"currency"`
	Stage             Stage           `json:"stage"`
	Probability       int             `json:"probability"`
	ExpectedCloseDate *Date           `json:"expected_close_date,omitempty"`
	ActualCloseDate   *Date           `json:"actual_close_date,omitempty"`
	ContactID         *int64          `json:"contact_id,omitempty"`
	CompanyID         *int64          `json:"company_id,omitempty"`
	AssignedTo        *int64          `json:"assigned_to,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         *time.Time      `json:"updated_at,omitempty"`
}

// IsOpen reports whether the deal is in a non-terminal stage.
func (d *Deal) IsOpen() bool {
	return !d.Stage.IsClosed()
}

// LastTouched returns UpdatedAt, or CreatedAt for a deal never updated.
func (d *Deal) LastTouched() time.Time {
	if d.UpdatedAt != nil {
		return *d.UpdatedAt
	}
	return d.CreatedAt
}

// WeightedValue returns value × probability / 100.
func (d *Deal) WeightedValue() decimal.Decimal {
	return d.Value.Mul(decimal.NewFromInt(int64(d.Probability))).Div(decimal.NewFromInt(100))
}

// DealHistory is one immutable entry in a deal's audit trail. Only the fields
// that changed are set.
type DealHistory struct {
	ID             int64            `json:"id"`
	DealID         int64            `json:"deal_id"`
	OldStage       *Stage           `json:"old_stage"`
	NewStage       *Stage           `json:"new_stage"`
	OldValue       *decimal.Decimal `json:"old_value"`
	NewValue       *decimal.Decimal `json:"new_value"`
	OldProbability *int             `json:"old_probability"`
	NewProbability *int             `json:"new_probability"`
	ChangedBy      *int64           `json:"changed_by"`
	ChangeReason   string           `json:"change_reason,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// StageChanged reports whether the entry records a stage transition between
// two stages.
func (h *DealHistory) StageChanged() bool {
	return h.OldStage != nil && h.NewStage != nil
}

// DealInput holds the data needed to create a deal.
type DealInput struct {
	Title             string          `json:"title" validate:"required,max=255"`
	Description       string          `json:"description"`
	Value             decimal.Decimal `json:"value" validate:"gte=0"`
	Currency          string          `json:"currency" validate:"omitempty,len=3,uppercase"`
	Stage             Stage           `json:"stage" validate:"omitempty,stage"`
	Probability       int             `json:"probability" validate:"gte=0,lte=100"`
	ExpectedCloseDate *Date           `json:"expected_close_date"`
	ContactID         *int64          `json:"contact_id"`
	CompanyID         *int64          `json:"company_id"`
	AssignedTo        *int64          `json:"assigned_to"`
}

// DealPatch is a partial update. Nil fields are left untouched.
type DealPatch struct {
	Title             *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Description       *string          `json:"description"`
	Value             *decimal.Decimal `json:"value" validate:"omitempty,gte=0"`
	Currency          *string          `json:"currency" validate:"omitempty,len=3,uppercase"`
	Stage             *Stage           `json:"stage" validate:"omitempty,stage"`
	Probability       *int             `json:"probability" validate:"omitempty,gte=0,lte=100"`
	ExpectedCloseDate *Date            `json:"expected_close_date"`
	ContactID         *int64           `json:"contact_id"`
	CompanyID         *int64           `json:"company_id"`
	AssignedTo        *int64           `json:"assigned_to"`
}

// CloseInput closes a deal as won or lost.
type CloseInput struct {
	Won             bool  `json:"won"`
	ActualCloseDate *Date `json:"actual_close_date"`
}

// DealFilter narrows a deal listing.
type DealFilter struct {
	Stage      *Stage
	AssignedTo *int64
	ContactID  *int64
	CreatedGTE *time.Time
	CreatedLTE *time.Time
	MinValue   *decimal.Decimal
	MaxValue   *decimal.Decimal
	Offset     int
	Limit      int
}
