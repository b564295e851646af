package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/ticketdesk/internal/domain/notification"
	"github.com/rpggio/ticketdesk/internal/domain/session"
	"github.com/rpggio/ticketdesk/internal/domain/ticket"
	"github.com/rpggio/ticketdesk/internal/domain/workflow"
)

// Handler implements the tool actions on top of the domain stores.
type Handler struct {
	session       SessionService
	tickets       TicketService
	notifications NotificationService
	workflows     WorkflowService
	logger        *slog.Logger
}

// NewHandler creates a handler over svc.
func NewHandler(svc Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		session:       svc.Session,
		tickets:       svc.Tickets,
		notifications: svc.Notifications,
		workflows:     svc.Workflows,
		logger:        logger,
	}
}

func (h *Handler) requireLogin() error {
	if !h.session.IsLoggedIn() {
		return session.ErrNotLoggedIn
	}
	return nil
}

// Session

func (h *Handler) Login(ctx context.Context, p LoginParams) (*SessionResponse, error) {
	if _, err := h.session.Login(ctx, session.LoginForm{
		Username: p.Username,
		Password: p.Password,
		Remember: p.Remember,
	}); err != nil {
		return nil, err
	}
	h.logger.Info("logged in", "username", p.Username, "session_id", getSessionID(ctx))
	return h.sessionResponse(), nil
}

func (h *Handler) Logout(ctx context.Context, _ EmptyParams) (*StatusResponse, error) {
	h.session.Logout(ctx)
	return &StatusResponse{OK: true, Message: "logged out"}, nil
}

func (h *Handler) WhoAmI(_ context.Context, _ EmptyParams) (*SessionResponse, error) {
	return h.sessionResponse(), nil
}

func (h *Handler) sessionResponse() *SessionResponse {
	perms := h.session.Permissions()
	if perms == nil {
		perms = []string{}
	}
	return &SessionResponse{
		LoggedIn:    h.session.IsLoggedIn(),
		State:       h.session.State(),
		User:        h.session.User(),
		Permissions: perms,
	}
}

func (h *Handler) HasPermission(_ context.Context, p HasPermissionParams) (*HasPermissionResponse, error) {
	code := strings.TrimSpace(p.Code)
	if code == "" {
		return nil, &APIError{Code: "INVALID_INPUT", Message: "code is required"}
	}
	return &HasPermissionResponse{Code: code, Granted: h.session.HasPermission(code)}, nil
}

// Tickets

func (h *Handler) ListTickets(ctx context.Context, p ListTicketsParams) (*TicketListResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	page, err := h.tickets.FetchList(ctx, ticket.ListParams{
		Page:         p.Page,
		PageSize:     p.PageSize,
		Search:       p.Search,
		TypeID:       p.TypeID,
		StatusID:     p.StatusID,
		PriorityID:   p.PriorityID,
		DepartmentID: p.DepartmentID,
		AssigneeID:   p.AssigneeID,
		ReporterID:   p.ReporterID,
		DateFrom:     p.DateFrom,
		DateTo:       p.DateTo,
		Tags:         p.Tags,
		SortBy:       p.SortBy,
		SortOrder:    p.SortOrder,
	})
	if err != nil {
		return nil, err
	}
	return h.ticketList(page.Items), nil
}

func (h *Handler) LoadMoreTickets(ctx context.Context, _ EmptyParams) (*TicketListResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	page, err := h.tickets.LoadMore(ctx)
	if err != nil {
		return nil, err
	}
	var items []ticket.Ticket
	if page != nil {
		items = page.Items
	}
	return h.ticketList(items), nil
}

// ticketList reports items against the store cursor, so callers see the
// cached count and whether load_more_tickets has anything left.
func (h *Handler) ticketList(items []ticket.Ticket) *TicketListResponse {
	if items == nil {
		items = []ticket.Ticket{}
	}
	snap := h.tickets.Snapshot()
	return &TicketListResponse{
		Items:    items,
		Total:    snap.Total,
		Page:     snap.Page,
		PageSize: snap.PageSize,
		Cached:   len(snap.Items),
		HasMore:  h.tickets.HasMore(),
	}
}

func (h *Handler) GetTicket(ctx context.Context, p TicketIDParams) (*TicketResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	t, err := h.tickets.FetchOne(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &TicketResponse{Ticket: t}, nil
}

func (h *Handler) CreateTicket(ctx context.Context, p CreateTicketParams) (*TicketResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	due, err := parseDueDate(p.DueDate)
	if err != nil {
		return nil, err
	}
	t, err := h.tickets.Create(ctx, ticket.CreateForm{
		Title:        p.Title,
		Description:  p.Description,
		TypeID:       p.TypeID,
		PriorityID:   p.PriorityID,
		DepartmentID: p.DepartmentID,
		AssigneeID:   p.AssigneeID,
		DueDate:      due,
		Tags:         p.Tags,
	})
	if err != nil {
		return nil, err
	}
	return &TicketResponse{Ticket: t}, nil
}

func (h *Handler) UpdateTicket(ctx context.Context, p UpdateTicketParams) (*TicketResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	due, err := parseDueDate(p.DueDate)
	if err != nil {
		return nil, err
	}
	t, err := h.tickets.Update(ctx, p.ID, ticket.UpdateForm{
		Title:        p.Title,
		Description:  p.Description,
		TypeID:       p.TypeID,
		PriorityID:   p.PriorityID,
		DepartmentID: p.DepartmentID,
		AssigneeID:   p.AssigneeID,
		StatusID:     p.StatusID,
		DueDate:      due,
		Tags:         p.Tags,
	})
	if err != nil {
		return nil, err
	}
	return &TicketResponse{Ticket: t}, nil
}

func parseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, &APIError{Code: "INVALID_INPUT", Message: "due_date must be an RFC 3339 timestamp"}
	}
	return &t, nil
}

func (h *Handler) DeleteTicket(ctx context.Context, p TicketIDParams) (*StatusResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	if err := h.tickets.Delete(ctx, p.ID); err != nil {
		return nil, err
	}
	return &StatusResponse{OK: true}, nil
}

func (h *Handler) ListComments(ctx context.Context, p TicketIDParams) (*CommentsResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	comments, err := h.tickets.Comments(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []ticket.Comment{}
	}
	return &CommentsResponse{Comments: comments}, nil
}

func (h *Handler) AddComment(ctx context.Context, p AddCommentParams) (*CommentResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	c, err := h.tickets.AddComment(ctx, p.TicketID, ticket.CommentForm{Content: p.Content, IsInternal: p.Internal})
	if err != nil {
		return nil, err
	}
	return &CommentResponse{Comment: c}, nil
}

func (h *Handler) ListAttachments(ctx context.Context, p TicketIDParams) (*AttachmentsResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	attachments, err := h.tickets.Attachments(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if attachments == nil {
		attachments = []ticket.Attachment{}
	}
	return &AttachmentsResponse{Attachments: attachments}, nil
}

func (h *Handler) UploadAttachment(ctx context.Context, p UploadAttachmentParams) (*AttachmentResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	var data []byte
	switch strings.ToLower(p.Encoding) {
	case "", "text":
		data = []byte(p.Content)
	case "base64":
		decoded, err := base64.StdEncoding.DecodeString(p.Content)
		if err != nil {
			return nil, &APIError{Code: "INVALID_INPUT", Message: "content is not valid base64"}
		}
		data = decoded
	default:
		return nil, &APIError{Code: "INVALID_INPUT", Message: "encoding must be text or base64"}
	}
	a, err := h.tickets.UploadAttachment(ctx, p.TicketID, p.Filename, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &AttachmentResponse{Attachment: a}, nil
}

func (h *Handler) TicketHistory(ctx context.Context, p TicketIDParams) (*HistoryResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	history, err := h.tickets.History(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []ticket.HistoryEntry{}
	}
	return &HistoryResponse{History: history}, nil
}

func (h *Handler) ListApprovals(ctx context.Context, p TicketIDParams) (*ApprovalsResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	approvals, err := h.tickets.Approvals(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if approvals == nil {
		approvals = []ticket.Approval{}
	}
	return &ApprovalsResponse{Approvals: approvals}, nil
}

func (h *Handler) SubmitApproval(ctx context.Context, p SubmitApprovalParams) (*ApprovalResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	a, err := h.tickets.SubmitApproval(ctx, p.TicketID, ticket.ApprovalForm{
		StepID:  p.StepID,
		Status:  ticket.ApprovalStatus(strings.ToLower(p.Status)),
		Comment: p.Comment,
	})
	if err != nil {
		return nil, err
	}
	return &ApprovalResponse{Approval: a}, nil
}

func (h *Handler) TicketStats(ctx context.Context, _ EmptyParams) (*StatsResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	stats, err := h.tickets.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsResponse{Stats: stats}, nil
}

// Notifications

func (h *Handler) ListNotifications(ctx context.Context, p ListNotificationsParams) (*NotificationListResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	page, err := h.notifications.FetchList(ctx, notification.ListParams{
		Page:      p.Page,
		PageSize:  p.PageSize,
		Type:      notification.Type(p.Type),
		IsRead:    p.IsRead,
		DateFrom:  p.DateFrom,
		DateTo:    p.DateTo,
		SortBy:    p.SortBy,
		SortOrder: p.SortOrder,
	})
	if err != nil {
		return nil, err
	}
	return h.notificationList(page.Items), nil
}

func (h *Handler) LoadMoreNotifications(ctx context.Context, _ EmptyParams) (*NotificationListResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	page, err := h.notifications.LoadMore(ctx)
	if err != nil {
		return nil, err
	}
	var items []notification.Notification
	if page != nil {
		items = page.Items
	}
	return h.notificationList(items), nil
}

func (h *Handler) notificationList(items []notification.Notification) *NotificationListResponse {
	if items == nil {
		items = []notification.Notification{}
	}
	snap := h.notifications.Snapshot()
	return &NotificationListResponse{
		Items:       items,
		Total:       snap.Total,
		Page:        snap.Page,
		PageSize:    snap.PageSize,
		Cached:      len(snap.Items),
		HasMore:     h.notifications.HasMore(),
		UnreadCount: h.notifications.UnreadCount(),
	}
}

func (h *Handler) MarkNotificationRead(ctx context.Context, p NotificationIDParams) (*StatusResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	if err := h.notifications.MarkAsRead(ctx, p.ID); err != nil {
		return nil, err
	}
	return &StatusResponse{OK: true}, nil
}

func (h *Handler) MarkAllNotificationsRead(ctx context.Context, _ EmptyParams) (*StatusResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	if err := h.notifications.MarkAllAsRead(ctx); err != nil {
		return nil, err
	}
	return &StatusResponse{OK: true}, nil
}

// Workflows

func (h *Handler) ListWorkflows(ctx context.Context, p ListWorkflowsParams) (*WorkflowListResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	page, err := h.workflows.List(ctx, workflow.ListParams{
		Page:     p.Page,
		PageSize: p.PageSize,
		Search:   p.Search,
		IsActive: p.IsActive,
	})
	if err != nil {
		return nil, err
	}
	items := page.Items
	if items == nil {
		items = []workflow.Workflow{}
	}
	return &WorkflowListResponse{Items: items, Total: page.Total, Page: page.Page, PageSize: page.PageSize}, nil
}

func (h *Handler) GetWorkflow(ctx context.Context, p WorkflowIDParams) (*WorkflowResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	wf, err := h.workflows.Get(ctx, p.WorkflowID)
	if err != nil {
		return nil, err
	}
	return &WorkflowResponse{Workflow: wf}, nil
}

func (h *Handler) ListWorkflowSteps(ctx context.Context, p WorkflowIDParams) (*StepsResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	steps, err := h.workflows.Steps(ctx, p.WorkflowID)
	if err != nil {
		return nil, err
	}
	if steps == nil {
		steps = []workflow.Step{}
	}
	return &StepsResponse{Steps: steps}, nil
}

func (h *Handler) CreateWorkflowStep(ctx context.Context, p StepParams) (*StepResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	step, err := h.workflows.CreateStep(ctx, p.WorkflowID, p.form())
	if err != nil {
		return nil, err
	}
	return &StepResponse{Step: step}, nil
}

func (h *Handler) UpdateWorkflowStep(ctx context.Context, p StepParams) (*StepResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	if p.StepID <= 0 {
		return nil, workflow.ErrInvalidInput
	}
	step, err := h.workflows.UpdateStep(ctx, p.WorkflowID, p.StepID, p.form())
	if err != nil {
		return nil, err
	}
	return &StepResponse{Step: step}, nil
}

func (h *Handler) DeleteWorkflowStep(ctx context.Context, p StepIDParams) (*StatusResponse, error) {
	if err := h.requireLogin(); err != nil {
		return nil, err
	}
	if err := h.workflows.DeleteStep(ctx, p.WorkflowID, p.StepID); err != nil {
		return nil, err
	}
	return &StatusResponse{OK: true}, nil
}

func (p StepParams) form() workflow.StepForm {
	return workflow.StepForm{
		Name:         p.Name,
		Description:  p.Description,
		StepOrder:    p.StepOrder,
		StatusID:     p.StatusID,
		AssigneeType: workflow.AssigneeType(p.AssigneeType),
		AssigneeID:   p.AssigneeID,
		IsRequired:   p.IsRequired,
		TimeLimit:    p.TimeLimit,
	}
}
