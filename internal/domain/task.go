package domain

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

// TaskPriority ranks a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is a to-do item assigned to a user.
type Task struct {
	ID               int64        `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description,omitempty"`
	Priority         TaskPriority `json:"priority"`
	Status           TaskStatus   `json:"status"`
	DueDate          *Date        `json:"due_date,omitempty"`
	AssignedTo       int64        `json:"assigned_to"`
	CreatedBy        int64        `json:"created_by"`
	RelatedContactID *int64       `json:"related_contact_id,omitempty"`
	RelatedDealID    *int64       `json:"related_deal_id,omitempty"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        *time.Time   `json:"updated_at,omitempty"`
}

// IsOpen reports whether the task still needs doing.
func (t *Task) IsOpen() bool {
	return t.Status == TaskPending || t.Status == TaskInProgress
}

// TaskInput creates a task.
type TaskInput struct {
	Title            string       `json:"title" validate:"required,max=255"`
	Description      string       `json:"description"`
	Priority         TaskPriority `json:"priority" validate:"omitempty,task_priority"`
	Status           TaskStatus   `json:"status" validate:"omitempty,task_status"`
	DueDate          *Date        `json:"due_date"`
	AssignedTo       int64        `json:"assigned_to" validate:"required,gt=0"`
	RelatedContactID *int64       `json:"related_contact_id"`
	RelatedDealID    *int64       `json:"related_deal_id"`
}

// TaskPatch partially updates a task.
type TaskPatch struct {
	Title            *string       `json:"title" validate:"omitempty,min=1,max=255"`
	Description      *string       `json:"description"`
	Priority         *TaskPriority `json:"priority" validate:"omitempty,task_priority"`
	Status           *TaskStatus   `json:"status" validate:"omitempty,task_status"`
	DueDate          *Date         `json:"due_date"`
	AssignedTo       *int64        `json:"assigned_to" validate:"omitempty,gt=0"`
	RelatedContactID *int64        `json:"related_contact_id"`
	RelatedDealID    *int64        `json:"related_deal_id"`
}

// TaskFilter narrows a task listing.
type TaskFilter struct {
	AssignedTo *int64
	Status     *TaskStatus
	Priority   *TaskPriority
	Offset     int
	Limit      int
}
