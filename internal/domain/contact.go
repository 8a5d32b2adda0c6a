package domain

import "time"

// Contact is a person the sales team works with.
type Contact struct {
	ID             int64      `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	JobTitle       string     `json:"job_title,omitempty"`
	CompanyID      *int64     `json:"company_id,omitempty"`
	Tags           []string   `json:"tags"`
	LeadSource     string     `json:"lead_source,omitempty"`
	LifecycleStage string     `json:"lifecycle_stage,omitempty"`
	LeadScore      int        `json:"lead_score"`
	CreatedBy      *int64     `json:"created_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// FullName joins first and last name.
func (c *Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// ContactInput creates a contact.
type ContactInput struct {
	FirstName      string   `json:"first_name" validate:"required,max=100"`
	LastName       string   `json:"last_name" validate:"required,max=100"`
	Email          string   `json:"email" validate:"omitempty,email"`
	Phone          string   `json:"phone" validate:"max=50"`
	JobTitle       string   `json:"job_title" validate:"max=100"`
	CompanyID      *int64   `json:"company_id"`
	Tags           []string `json:"tags"`
	LeadSource     string   `json:"lead_source"`
	LifecycleStage string   `json:"lifecycle_stage"`
}

// ContactPatch partially updates a contact.
type ContactPatch struct {
	FirstName      *string   `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName       *string   `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email          *string   `json:"email" validate:"omitempty,email"`
	Phone          *string   `json:"phone" validate:"omitempty,max=50"`
	JobTitle       *string   `json:"job_title" validate:"omitempty,max=100"`
	CompanyID      *int64    `json:"company_id"`
	Tags           *[]string `json:"tags"`
	LeadSource     *string   `json:"lead_source"`
	LifecycleStage *string   `json:"lifecycle_stage"`
}

// ContactFilter narrows a contact listing. Search matches first name, last
// name or email, case-insensitively.
type ContactFilter struct {
	Search    string
	CompanyID *int64
	Offset    int
	Limit     int
}
