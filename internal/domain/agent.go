package domain

import "time"

// AgentRun statuses.
const (
	AgentRunSucceeded = "succeeded"
	AgentRunFailed    = "failed"
)

// AgentRun is one prompt/response exchange with the language model.
type AgentRun struct {
	ID         int64     `json:"id"`
	Agent      string    `json:"agent"`
	SubjectID  *int64    `json:"subject_id,omitempty"`
	UserID     *int64    `json:"user_id,omitempty"`
	Model      string    `json:"model,omitempty"`
	Prompt     string    `json:"prompt"`
	Response   string    `json:"response,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// AgentRunFilter narrows an agent run listing.
type AgentRunFilter struct {
	Agent  string
	Offset int
	Limit  int
}
