package mcp

import (
	"context"
	"io"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/ticketdesk/internal/domain/listing"
	"github.com/rpggio/ticketdesk/internal/domain/notification"
	"github.com/rpggio/ticketdesk/internal/domain/session"
	"github.com/rpggio/ticketdesk/internal/domain/ticket"
	"github.com/rpggio/ticketdesk/internal/domain/workflow"
)

// SessionService defines session operations needed by MCP.
type SessionService interface {
	Login(ctx context.Context, form session.LoginForm) (*session.User, error)
	Logout(ctx context.Context)
	IsLoggedIn() bool
	State() session.State
	User() *session.User
	Permissions() []string
	HasPermission(code string) bool
}

// TicketService defines ticket operations needed by MCP.
type TicketService interface {
	FetchList(ctx context.Context, params ticket.ListParams) (*listing.Page[ticket.Ticket], error)
	LoadMore(ctx context.Context) (*listing.Page[ticket.Ticket], error)
	FetchOne(ctx context.Context, id int64) (*ticket.Ticket, error)
	Create(ctx context.Context, form ticket.CreateForm) (*ticket.Ticket, error)
	Update(ctx context.Context, id int64, form ticket.UpdateForm) (*ticket.Ticket, error)
	Delete(ctx context.Context, id int64) error
	Comments(ctx context.Context, id int64) ([]ticket.Comment, error)
	AddComment(ctx context.Context, id int64, form ticket.CommentForm) (*ticket.Comment, error)
	Attachments(ctx context.Context, id int64) ([]ticket.Attachment, error)
	UploadAttachment(ctx context.Context, id int64, filename string, file io.Reader) (*ticket.Attachment, error)
	History(ctx context.Context, id int64) ([]ticket.HistoryEntry, error)
	Approvals(ctx context.Context, id int64) ([]ticket.Approval, error)
	SubmitApproval(ctx context.Context, id int64, form ticket.ApprovalForm) (*ticket.Approval, error)
	Stats(ctx context.Context) (*ticket.Stats, error)
	Snapshot() listing.Snapshot[ticket.Ticket]
	HasMore() bool
}

// NotificationService defines notification operations needed by MCP.
type NotificationService interface {
	FetchList(ctx context.Context, params notification.ListParams) (*notification.Page, error)
	LoadMore(ctx context.Context) (*notification.Page, error)
	MarkAsRead(ctx context.Context, id int64) error
	MarkAllAsRead(ctx context.Context) error
	Snapshot() listing.Snapshot[notification.Notification]
	UnreadCount() int
	HasMore() bool
}

// WorkflowService defines workflow operations needed by MCP.
type WorkflowService interface {
	List(ctx context.Context, params workflow.ListParams) (*listing.Page[workflow.Workflow], error)
	Get(ctx context.Context, id int64) (*workflow.Workflow, error)
	Steps(ctx context.Context, workflowID int64) ([]workflow.Step, error)
	CreateStep(ctx context.Context, workflowID int64, form workflow.StepForm) (*workflow.Step, error)
	UpdateStep(ctx context.Context, workflowID, stepID int64, form workflow.StepForm) (*workflow.Step, error)
	DeleteStep(ctx context.Context, workflowID, stepID int64) error
}

// Services contains all domain services needed by MCP.
type Services struct {
	Session       SessionService
	Tickets       TicketService
	Notifications NotificationService
	Workflows     WorkflowService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "ticketdesk",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(sessionMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services, cfg.Logger))

	return server
}
