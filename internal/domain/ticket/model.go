package ticket

import (
	"time"

	"github.com/rpggio/ticketdesk/internal/domain/session"
	"github.com/rpggio/ticketdesk/internal/domain/workflow"
)

// Status is the ticket status lookup entity.
type Status = workflow.Status

// Ticket is a support ticket as returned by the API. References to lookup
// entities are denormalized by the server.
type Ticket struct {
	ID            int64               `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	TypeID        int64               `json:"typeId"`
	Type          *Type               `json:"type,omitempty"`
	StatusID      int64               `json:"statusId"`
	Status        *Status             `json:"status,omitempty"`
	PriorityID    int64               `json:"priorityId"`
	Priority      *Priority           `json:"priority,omitempty"`
	DepartmentID  int64               `json:"departmentId"`
	Department    *session.Department `json:"department,omitempty"`
	AssigneeID    *int64              `json:"assigneeId,omitempty"`
	Assignee      *session.User       `json:"assignee,omitempty"`
	ReporterID    int64               `json:"reporterId"`
	Reporter      *session.User       `json:"reporter,omitempty"`
	WorkflowID    *int64              `json:"workflowId,omitempty"`
	Workflow      *workflow.Workflow  `json:"workflow,omitempty"`
	CurrentStepID *int64              `json:"currentStepId,omitempty"`
	CurrentStep   *workflow.Step      `json:"currentStep,omitempty"`
	DueDate       *time.Time          `json:"dueDate,omitempty"`
	ResolvedAt    *time.Time          `json:"resolvedAt,omitempty"`
	ClosedAt      *time.Time          `json:"closedAt,omitempty"`
	Tags          []string            `json:"tags,omitempty"`
	CustomFields  map[string]any      `json:"customFields,omitempty"`
	Attachments   []Attachment        `json:"attachments,omitempty"`
	Comments      []Comment           `json:"comments,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// GetID returns the server-assigned id.
func (t Ticket) GetID() int64 { return t.ID }

// Type is a ticket category, optionally bound to a workflow.
type Type struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
	WorkflowID  *int64 `json:"workflowId,omitempty"`
	IsActive    bool   `json:"isActive"`
}

// Priority orders tickets by urgency; higher Level is more urgent.
type Priority struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Level       int    `json:"level"`
	Color       string `json:"color,omitempty"`
	IsActive    bool   `json:"isActive"`
}

// Attachment is a file uploaded to a ticket.
type Attachment struct {
	ID           int64         `json:"id"`
	TicketID     int64         `json:"ticketId"`
	Filename     string        `json:"filename"`
	OriginalName string        `json:"originalName"`
	MimeType     string        `json:"mimeType"`
	Size         int64         `json:"size"`
	URL          string        `json:"url"`
	UploadedByID int64         `json:"uploadedById"`
	UploadedBy   *session.User `json:"uploadedBy,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Comment is a note on a ticket. Internal comments are hidden from reporters.
type Comment struct {
	ID          int64         `json:"id"`
	TicketID    int64         `json:"ticketId"`
	Content     string        `json:"content"`
	AuthorID    int64         `json:"authorId"`
	Author      *session.User `json:"author,omitempty"`
	IsInternal  bool          `json:"isInternal"`
	Attachments []Attachment  `json:"attachments,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// HistoryEntry is one audit line of a ticket's change history.
type HistoryEntry struct {
	ID          int64         `json:"id"`
	TicketID    int64         `json:"ticketId"`
	Action      string        `json:"action"`
	Field       string        `json:"field,omitempty"`
	OldValue    string        `json:"oldValue,omitempty"`
	NewValue    string        `json:"newValue,omitempty"`
	Description string        `json:"description"`
	UserID      int64         `json:"userId"`
	User        *session.User `json:"user,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// ApprovalStatus is the decision on a workflow approval.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Approval is a decision on a ticket's workflow step.
type Approval struct {
	ID         int64          `json:"id"`
	TicketID   int64          `json:"ticketId"`
	StepID     int64          `json:"stepId"`
	Step       *workflow.Step `json:"step,omitempty"`
	ApproverID int64          `json:"approverId"`
	Approver   *session.User  `json:"approver,omitempty"`
	Status     ApprovalStatus `json:"status"`
	Comment    string         `json:"comment,omitempty"`
	ApprovedAt *time.Time     `json:"approvedAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Stats aggregates ticket counts.
type Stats struct {
	Total        int            `json:"total"`
	Open         int            `json:"open"`
	InProgress   int            `json:"inProgress"`
	Resolved     int            `json:"resolved"`
	Closed       int            `json:"closed"`
	Overdue      int            `json:"overdue"`
	ByPriority   map[string]int `json:"byPriority,omitempty"`
	ByType       map[string]int `json:"byType,omitempty"`
	ByDepartment map[string]int `json:"byDepartment,omitempty"`
}

// CreateForm is the body of POST /tickets.
type CreateForm struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	TypeID       int64          `json:"typeId"`
	PriorityID   int64          `json:"priorityId"`
	DepartmentID int64          `json:"departmentId"`
	AssigneeID   *int64         `json:"assigneeId,omitempty"`
	DueDate      *time.Time     `json:"dueDate,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	CustomFields map[string]any `json:"customFields,omitempty"`
}

// UpdateForm is the body of PUT /tickets/:id. Nil fields are left unchanged.
type UpdateForm struct {
	Title        *string        `json:"title,omitempty"`
	Description  *string        `json:"description,omitempty"`
	TypeID       *int64         `json:"typeId,omitempty"`
	PriorityID   *int64         `json:"priorityId,omitempty"`
	DepartmentID *int64         `json:"departmentId,omitempty"`
	AssigneeID   *int64         `json:"assigneeId,omitempty"`
	StatusID     *int64         `json:"statusId,omitempty"`
	DueDate      *time.Time     `json:"dueDate,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	CustomFields map[string]any `json:"customFields,omitempty"`
}

// CommentForm is the body of POST /tickets/:id/comments.
type CommentForm struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"isInternal,omitempty"`
}

// ApprovalForm is the body of POST /tickets/:id/approvals.
type ApprovalForm struct {
	StepID  int64          `json:"stepId"`
	Status  ApprovalStatus `json:"status"`
	Comment string         `json:"comment,omitempty"`
}
