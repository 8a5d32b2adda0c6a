package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company is an organisation contacts and deals belong to.
type Company struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Industry      string           `json:"industry,omitempty"`
	Website       string           `json:"website,omitempty"`
	Address       string           `json:"address,omitempty"`
	EmployeeCount *int             `json:"employee_count,omitempty"`
	AnnualRevenue *decimal.Decimal `json:"annual_revenue,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     *time.Time       `json:"updated_at,omitempty"`
}

// CompanyInput creates a company.
type CompanyInput struct {
	Name          string           `json:"name" validate:"required,max=255"`
	Industry      string           `json:"industry"`
	Website       string           `json:"website" validate:"omitempty,url"`
	Address       string           `json:"address"`
	EmployeeCount *int             `json:"employee_count" validate:"omitempty,gte=0"`
	AnnualRevenue *decimal.Decimal `json:"annual_revenue" validate:"omitempty,gte=0"`
}

// CompanyPatch partially updates a company.
type CompanyPatch struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Industry      *string          `json:"industry"`
	Website       *string          `json:"website" validate:"omitempty,url"`
	Address       *string          `json:"address"`
	EmployeeCount *int             `json:"employee_count" validate:"omitempty,gte=0"`
	AnnualRevenue *decimal.Decimal `json:"annual_revenue" validate:"omitempty,gte=0"`
}

// CompanyFilter narrows a company listing. Search matches name or industry.
type CompanyFilter struct {
	Search string
	Offset int
	Limit  int
}
