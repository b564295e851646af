package mocks

import (
	"context"
	"io"

	"github.com/rpggio/ticketdesk/internal/domain/listing"
	"github.com/rpggio/ticketdesk/internal/domain/notification"
	"github.com/rpggio/ticketdesk/internal/domain/session"
	"github.com/rpggio/ticketdesk/internal/domain/ticket"
	"github.com/rpggio/ticketdesk/internal/domain/workflow"
	"github.com/stretchr/testify/mock"
)

// AuthAPI is a mock for session.AuthAPI.
type AuthAPI struct {
	mock.Mock
}

func (m *AuthAPI) Login(ctx context.Context, form session.LoginForm) (*session.LoginResult, error) {
	args := m.Called(ctx, form)
	if res, ok := args.Get(0).(*session.LoginResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuthAPI) Me(ctx context.Context) (*session.Profile, error) {
	args := m.Called(ctx)
	if p, ok := args.Get(0).(*session.Profile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuthAPI) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// TokenRepository is a mock for session.TokenRepository.
type TokenRepository struct {
	mock.Mock
}

func (m *TokenRepository) Load(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *TokenRepository) Save(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *TokenRepository) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// TicketAPI is a mock for ticket.API.
type TicketAPI struct {
	mock.Mock
}

func (m *TicketAPI) List(ctx context.Context, params ticket.ListParams) (*listing.Page[ticket.Ticket], error) {
	args := m.Called(ctx, params)
	if p, ok := args.Get(0).(*listing.Page[ticket.Ticket]); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketAPI) Get(ctx context.Context, id int64) (*ticket.Ticket, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*ticket.Ticket); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketAPI) Create(ctx context.Context, form ticket.CreateForm) (*ticket.Ticket, error) {
	args := m.Called(ctx, form)
	if t, ok := args.Get(0).(*ticket.Ticket); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketAPI) Update(ctx context.Context, id int64, form ticket.UpdateForm) (*ticket.Ticket, error) {
	args := m.Called(ctx, id, form)
	if t, ok := args.Get(0).(*ticket.Ticket); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketAPI) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TicketAPI) Comments(ctx context.Context, id int64) ([]ticket.Comment, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).([]ticket.Comment); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketAPI) AddComment(ctx context.Context, id int64, form ticket.CommentForm) (*ticket.Comment, error) {
	args := m.Called(ctx, id, form)
	if c, ok := args.Get(0).(*ticket.Comment); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketAPI) Attachments(ctx context.Context, id int64) ([]ticket.Attachment, error) {
	args := m.Called(ctx, id)
	if a, ok := args.Get(0).([]ticket.Attachment); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketAPI) UploadAttachment(ctx context.Context, id int64, filename string, file io.Reader) (*ticket.Attachment, error) {
	args := m.Called(ctx, id, filename, file)
	if a, ok := args.Get(0).(*ticket.Attachment); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketAPI) History(ctx context.Context, id int64) ([]ticket.HistoryEntry, error) {
	args := m.Called(ctx, id)
	if h, ok := args.Get(0).([]ticket.HistoryEntry); ok {
		return h, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketAPI) Approvals(ctx context.Context, id int64) ([]ticket.Approval, error) {
	args := m.Called(ctx, id)
	if a, ok := args.Get(0).([]ticket.Approval); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketAPI) SubmitApproval(ctx context.Context, id int64, form ticket.ApprovalForm) (*ticket.Approval, error) {
	args := m.Called(ctx, id, form)
	if a, ok := args.Get(0).(*ticket.Approval); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketAPI) Stats(ctx context.Context) (*ticket.Stats, error) {
	args := m.Called(ctx)
	if s, ok := args.Get(0).(*ticket.Stats); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// NotificationAPI is a mock for notification.API.
type NotificationAPI struct {
	mock.Mock
}

func (m *NotificationAPI) List(ctx context.Context, params notification.ListParams) (*notification.Page, error) {
	args := m.Called(ctx, params)
	if p, ok := args.Get(0).(*notification.Page); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationAPI) MarkAsRead(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *NotificationAPI) MarkAllAsRead(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// WorkflowAPI is a mock for workflow.API.
type WorkflowAPI struct {
	mock.Mock
}

func (m *WorkflowAPI) List(ctx context.Context, params workflow.ListParams) (*listing.Page[workflow.Workflow], error) {
	args := m.Called(ctx, params)
	if p, ok := args.Get(0).(*listing.Page[workflow.Workflow]); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkflowAPI) Get(ctx context.Context, id int64) (*workflow.Workflow, error) {
	args := m.Called(ctx, id)
	if wf, ok := args.Get(0).(*workflow.Workflow); ok {
		return wf, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkflowAPI) Steps(ctx context.Context, workflowID int64) ([]workflow.Step, error) {
	args := m.Called(ctx, workflowID)
	if s, ok := args.Get(0).([]workflow.Step); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkflowAPI) CreateStep(ctx context.Context, workflowID int64, form workflow.StepForm) (*workflow.Step, error) {
	args := m.Called(ctx, workflowID, form)
	if s, ok := args.Get(0).(*workflow.Step); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkflowAPI) UpdateStep(ctx context.Context, workflowID, stepID int64, form workflow.StepForm) (*workflow.Step, error) {
	args := m.Called(ctx, workflowID, stepID, form)
	if s, ok := args.Get(0).(*workflow.Step); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkflowAPI) DeleteStep(ctx context.Context, workflowID, stepID int64) error {
	args := m.Called(ctx, workflowID, stepID)
	return args.Error(0)
}
