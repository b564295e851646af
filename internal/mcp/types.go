package mcp

import (
	"github.com/rpggio/ticketdesk/internal/domain/notification"
	"github.com/rpggio/ticketdesk/internal/domain/session"
	"github.com/rpggio/ticketdesk/internal/domain/ticket"
	"github.com/rpggio/ticketdesk/internal/domain/workflow"
)

type EmptyParams struct{}

type LoginParams struct {
	Username string `json:"username" jsonschema:"account name"`
	Password string `json:"password" jsonschema:"account password"`
	Remember bool   `json:"remember,omitempty" jsonschema:"ask the server for a long-lived token"`
}

type HasPermissionParams struct {
	Code string `json:"code" jsonschema:"permission code such as ticket:create"`
}

type ListTicketsParams struct {
	Page         int      `json:"page,omitempty" jsonschema:"page number, 1 replaces the cached list"`
	PageSize     int      `json:"page_size,omitempty"`
	Search       string   `json:"search,omitempty" jsonschema:"matches title and description"`
	TypeID       int64    `json:"type_id,omitempty"`
	StatusID     int64    `json:"status_id,omitempty"`
	PriorityID   int64    `json:"priority_id,omitempty"`
	DepartmentID int64    `json:"department_id,omitempty"`
	AssigneeID   int64    `json:"assignee_id,omitempty"`
	ReporterID   int64    `json:"reporter_id,omitempty"`
	DateFrom     string   `json:"date_from,omitempty" jsonschema:"YYYY-MM-DD"`
	DateTo       string   `json:"date_to,omitempty" jsonschema:"YYYY-MM-DD"`
	Tags         []string `json:"tags,omitempty"`
	SortBy       string   `json:"sort_by,omitempty" jsonschema:"createdAt, priority or title"`
	SortOrder    string   `json:"sort_order,omitempty" jsonschema:"asc or desc"`
}

type TicketIDParams struct {
	ID int64 `json:"id" jsonschema:"ticket id"`
}

type CreateTicketParams struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	TypeID       int64    `json:"type_id"`
	PriorityID   int64    `json:"priority_id"`
	DepartmentID int64    `json:"department_id"`
	AssigneeID   *int64   `json:"assignee_id,omitempty"`
	DueDate      string   `json:"due_date,omitempty" jsonschema:"RFC 3339 timestamp"`
	Tags         []string `json:"tags,omitempty"`
}

type UpdateTicketParams struct {
	ID           int64    `json:"id" jsonschema:"ticket id"`
	Title        *string  `json:"title,omitempty"`
	Description  *string  `json:"description,omitempty"`
	TypeID       *int64   `json:"type_id,omitempty"`
	PriorityID   *int64   `json:"priority_id,omitempty"`
	DepartmentID *int64   `json:"department_id,omitempty"`
	AssigneeID   *int64   `json:"assignee_id,omitempty"`
	StatusID     *int64   `json:"status_id,omitempty"`
	DueDate      string   `json:"due_date,omitempty" jsonschema:"RFC 3339 timestamp"`
	Tags         []string `json:"tags,omitempty"`
}

type AddCommentParams struct {
	TicketID int64  `json:"ticket_id"`
	Content  string `json:"content"`
	Internal bool   `json:"internal,omitempty" jsonschema:"hide the comment from the reporter"`
}

type UploadAttachmentParams struct {
	TicketID int64  `json:"ticket_id"`
	Filename string `json:"filename"`
	Content  string `json:"content" jsonschema:"file content, base64 when encoding is base64"`
	Encoding string `json:"encoding,omitempty" jsonschema:"text (default) or base64"`
}

type SubmitApprovalParams struct {
	TicketID int64  `json:"ticket_id"`
	StepID   int64  `json:"step_id"`
	Status   string `json:"status" jsonschema:"approved or rejected"`
	Comment  string `json:"comment,omitempty"`
}

type ListNotificationsParams struct {
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
	Type      string `json:"type,omitempty"`
	IsRead    *bool  `json:"is_read,omitempty"`
	DateFrom  string `json:"date_from,omitempty"`
	DateTo    string `json:"date_to,omitempty"`
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
}

type NotificationIDParams struct {
	ID int64 `json:"id" jsonschema:"notification id"`
}

type ListWorkflowsParams struct {
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
	Search   string `json:"search,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

type WorkflowIDParams struct {
	WorkflowID int64 `json:"workflow_id"`
}

// StepParams carries the fields of a workflow step. StepID is ignored on
// create.
type StepParams struct {
	WorkflowID   int64  `json:"workflow_id"`
	StepID       int64  `json:"step_id,omitempty"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	StepOrder    int    `json:"step_order" jsonschema:"1-based position in the workflow"`
	StatusID     int64  `json:"status_id" jsonschema:"ticket status the step moves tickets into"`
	AssigneeType string `json:"assignee_type,omitempty" jsonschema:"user, role or department"`
	AssigneeID   *int64 `json:"assignee_id,omitempty"`
	IsRequired   bool   `json:"is_required,omitempty"`
	TimeLimit    *int   `json:"time_limit,omitempty" jsonschema:"hours allowed for the step"`
}

type StepIDParams struct {
	WorkflowID int64 `json:"workflow_id"`
	StepID     int64 `json:"step_id"`
}

type StatusResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type SessionResponse struct {
	LoggedIn    bool          `json:"logged_in"`
	State       session.State `json:"state"`
	User        *session.User `json:"user,omitempty"`
	Permissions []string      `json:"permissions"`
}

type HasPermissionResponse struct {
	Code    string `json:"code"`
	Granted bool   `json:"granted"`
}

type TicketListResponse struct {
	Items    []ticket.Ticket `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Cached   int             `json:"cached"`
	HasMore  bool            `json:"has_more"`
}

type TicketResponse struct {
	Ticket *ticket.Ticket `json:"ticket"`
}

type CommentsResponse struct {
	Comments []ticket.Comment `json:"comments"`
}

type CommentResponse struct {
	Comment *ticket.Comment `json:"comment"`
}

type AttachmentsResponse struct {
	Attachments []ticket.Attachment `json:"attachments"`
}

type AttachmentResponse struct {
	Attachment *ticket.Attachment `json:"attachment"`
}

type HistoryResponse struct {
	History []ticket.HistoryEntry `json:"history"`
}

type ApprovalsResponse struct {
	Approvals []ticket.Approval `json:"approvals"`
}

type ApprovalResponse struct {
	Approval *ticket.Approval `json:"approval"`
}

type StatsResponse struct {
	Stats *ticket.Stats `json:"stats"`
}

type NotificationListResponse struct {
	Items       []notification.Notification `json:"items"`
	Total       int                         `json:"total"`
	Page        int                         `json:"page"`
	PageSize    int                         `json:"page_size"`
	Cached      int                         `json:"cached"`
	HasMore     bool                        `json:"has_more"`
	UnreadCount int                         `json:"unread_count"`
}

type WorkflowListResponse struct {
	Items    []workflow.Workflow `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

type WorkflowResponse struct {
	Workflow *workflow.Workflow `json:"workflow"`
}

type StepsResponse struct {
	Steps []workflow.Step `json:"steps"`
}

type StepResponse struct {
	Step *workflow.Step `json:"step"`
}
