package domain

import "time"

// ActivityType classifies an activity.
type ActivityType string

const (
	ActivityCall    ActivityType = "call"
	ActivityEmail   ActivityType = "email"
	ActivityMeeting ActivityType = "meeting"
	ActivityNote    ActivityType = "note"
	ActivityTask    ActivityType = "task"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote, ActivityTask:
		return true
	}
	return false
}

// Activity is an interaction logged against a contact or deal.
type Activity struct {
	ID          int64        `json:"id"`
	Type        ActivityType `json:"type"`
	Subject     string       `json:"subject"`
	Description string       `json:"description,omitempty"`
	Outcome     string       `json:"outcome,omitempty"`
	ContactID   *int64       `json:"contact_id,omitempty"`
	DealID      *int64       `json:"deal_id,omitempty"`
	UserID      *int64       `json:"user_id,omitempty"`
	ScheduledAt *time.Time   `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ActivityInput creates an activity.
type ActivityInput struct {
	Type        ActivityType `json:"type" validate:"required,activity_type"`
	Subject     string       `json:"subject" validate:"required,max=255"`
	Description string       `json:"description"`
	Outcome     string       `json:"outcome"`
	ContactID   *int64       `json:"contact_id"`
	DealID      *int64       `json:"deal_id"`
	ScheduledAt *time.Time   `json:"scheduled_at"`
	CompletedAt *time.Time   `json:"completed_at"`
}

// ActivityPatch partially updates an activity.
type ActivityPatch struct {
	Type        *ActivityType `json:"type" validate:"omitempty,activity_type"`
	Subject     *string       `json:"subject" validate:"omitempty,min=1,max=255"`
	Description *string       `json:"description"`
	Outcome     *string       `json:"outcome"`
	ContactID   *int64        `json:"contact_id"`
	DealID      *int64        `json:"deal_id"`
	ScheduledAt *time.Time    `json:"scheduled_at"`
	CompletedAt *time.Time    `json:"completed_at"`
}

// ActivityFilter narrows an activity listing.
type ActivityFilter struct {
	ContactID *int64
	DealID    *int64
	UserID    *int64
	Offset    int
	Limit     int
}
