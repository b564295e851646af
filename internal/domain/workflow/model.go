package workflow

import "time"

// AssigneeType says what a step's AssigneeID refers to.
type AssigneeType string

const (
	AssigneeUser       AssigneeType = "user"
	AssigneeRole       AssigneeType = "role"
	AssigneeDepartment AssigneeType = "department"
)

// Status is a ticket status a workflow step moves tickets into.
type Status struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	IsFinal     bool      `json:"isFinal"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Workflow is an ordered set of steps a ticket type follows.
type Workflow struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Steps       []Step    `json:"steps"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Step is one stage of a workflow.
type Step struct {
	ID           int64          `json:"id"`
	WorkflowID   int64          `json:"workflowId"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	StepOrder    int            `json:"stepOrder"`
	StatusID     int64          `json:"statusId"`
	Status       *Status        `json:"status,omitempty"`
	AssigneeType AssigneeType   `json:"assigneeType"`
	AssigneeID   *int64         `json:"assigneeId,omitempty"`
	IsRequired   bool           `json:"isRequired"`
	TimeLimit    *int           `json:"timeLimit,omitempty"` // hours
	Conditions   map[string]any `json:"conditions,omitempty"`
	Actions      map[string]any `json:"actions,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// StepForm creates or replaces a workflow step.
type StepForm struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	StepOrder    int            `json:"stepOrder"`
	StatusID     int64          `json:"statusId"`
	AssigneeType AssigneeType   `json:"assigneeType,omitempty"`
	AssigneeID   *int64         `json:"assigneeId,omitempty"`
	IsRequired   bool           `json:"isRequired"`
	TimeLimit    *int           `json:"timeLimit,omitempty"`
	Conditions   map[string]any `json:"conditions,omitempty"`
	Actions      map[string]any `json:"actions,omitempty"`
}

// ListParams filters GET /workflows.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	IsActive *bool
}
