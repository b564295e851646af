package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/ticketdesk/internal/apiclient"
	"github.com/rpggio/ticketdesk/internal/domain/listing"
	"github.com/rpggio/ticketdesk/internal/domain/notification"
	"github.com/rpggio/ticketdesk/internal/domain/session"
	"github.com/rpggio/ticketdesk/internal/domain/ticket"
	"github.com/rpggio/ticketdesk/internal/domain/workflow"
	"github.com/rpggio/ticketdesk/internal/restapi"
	"github.com/rpggio/ticketdesk/internal/sqlite"
	"github.com/rpggio/ticketdesk/internal/testserver"
	"github.com/stretchr/testify/require"
)

type harness struct {
	api     *testserver.TestServer
	session *session.Store
	client  *sdkmcp.ClientSession
}

// newBackedServer builds an MCP server over real stores talking to a fake API,
// with the session token persisted in an in-memory SQLite database.
func newBackedServer(t *testing.T) (*testserver.TestServer, *session.Store, *sdkmcp.Server) {
	t.Helper()

	api := testserver.New(t)
	client, err := apiclient.New(apiclient.Config{BaseURL: api.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	sess := session.NewStore(restapi.NewAuth(client), sqlite.NewTokenRepository(db, api.URL), nil)
	client.BindSession(sess)

	server := NewServer(Config{Services: Services{
		Session:       sess,
		Tickets:       ticket.NewStore(restapi.NewTickets(client), 10, nil),
		Notifications: notification.NewStore(restapi.NewNotifications(client), 10, nil),
		Workflows:     workflow.NewService(restapi.NewWorkflows(client), nil),
	}})
	return api, sess, server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	api, sess, server := newBackedServer(t)

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	cs, err := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil).
		Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })

	return &harness{api: api, session: sess, client: cs}
}

func (h *harness) call(t *testing.T, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := h.client.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	res := h.call(t, "login", map[string]any{"username": testserver.Username, "password": testserver.Password})
	require.False(t, res.IsError, resultText(t, res))
}

func resultText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func decode[T any](t *testing.T, res *sdkmcp.CallToolResult) T {
	t.Helper()
	text := resultText(t, res)
	require.False(t, res.IsError, text)
	var out T
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out
}

func requireToolError(t *testing.T, res *sdkmcp.CallToolResult, code string) {
	t.Helper()
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), code)
}

func TestTools_RequireLogin(t *testing.T) {
	h := newHarness(t)

	requireToolError(t, h.call(t, "list_tickets", nil), "LOGIN_REQUIRED")
	requireToolError(t, h.call(t, "mark_all_notifications_read", nil), "LOGIN_REQUIRED")
	require.Zero(t, h.api.Requests("GET", "/tickets"))

	who := decode[SessionResponse](t, h.call(t, "whoami", nil))
	require.False(t, who.LoggedIn)
	require.Equal(t, session.StateLoggedOut, who.State)
	require.Empty(t, who.Permissions)
}

func TestTools_LoginWhoAmIAndPermissions(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "login", map[string]any{"username": testserver.Username, "password": testserver.Password})
	out := decode[SessionResponse](t, res)
	require.True(t, out.LoggedIn)
	require.Equal(t, session.StateLoggedIn, out.State)
	require.NotNil(t, out.User)
	require.Equal(t, testserver.Username, out.User.Username)
	require.ElementsMatch(t, testserver.DefaultPermissions, out.Permissions)

	granted := decode[HasPermissionResponse](t, h.call(t, "has_permission", map[string]any{"code": "ticket:create"}))
	require.True(t, granted.Granted)
	denied := decode[HasPermissionResponse](t, h.call(t, "has_permission", map[string]any{"code": "user:delete"}))
	require.False(t, denied.Granted)

	decode[StatusResponse](t, h.call(t, "logout", nil))
	require.False(t, h.session.IsLoggedIn())
}

func TestTools_BadCredentials(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "login", map[string]any{"username": testserver.Username, "password": "wrong"})
	requireToolError(t, res, "AUTH_FAILED")
	require.False(t, h.session.IsLoggedIn())
}

func TestTools_TicketLifecycle(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	created := decode[TicketResponse](t, h.call(t, "create_ticket", map[string]any{
		"title":         "Printer broken",
		"description":   "Third floor printer jams",
		"type_id":       1,
		"priority_id":   2,
		"department_id": 3,
		"tags":          []string{"hardware"},
	}))
	require.NotNil(t, created.Ticket)
	id := created.Ticket.ID

	list := decode[TicketListResponse](t, h.call(t, "list_tickets", nil))
	require.Equal(t, 1, list.Total)
	require.Len(t, list.Items, 1)
	require.Equal(t, "Printer broken", list.Items[0].Title)

	got := decode[TicketResponse](t, h.call(t, "get_ticket", map[string]any{"id": id}))
	require.Equal(t, "Third floor printer jams", got.Ticket.Description)

	updated := decode[TicketResponse](t, h.call(t, "update_ticket", map[string]any{"id": id, "title": "Printer fixed"}))
	require.Equal(t, "Printer fixed", updated.Ticket.Title)

	comment := decode[CommentResponse](t, h.call(t, "add_ticket_comment", map[string]any{"ticket_id": id, "content": "on it"}))
	require.Equal(t, "on it", comment.Comment.Content)
	comments := decode[CommentsResponse](t, h.call(t, "list_ticket_comments", map[string]any{"id": id}))
	require.Len(t, comments.Comments, 1)

	upload := decode[AttachmentResponse](t, h.call(t, "upload_ticket_attachment", map[string]any{
		"ticket_id": id,
		"filename":  "log.txt",
		"content":   base64.StdEncoding.EncodeToString([]byte("paper jam")),
		"encoding":  "base64",
	}))
	require.Equal(t, int64(len("paper jam")), upload.Attachment.Size)
	attachments := decode[AttachmentsResponse](t, h.call(t, "list_ticket_attachments", map[string]any{"id": id}))
	require.Len(t, attachments.Attachments, 1)

	history := decode[HistoryResponse](t, h.call(t, "ticket_history", map[string]any{"id": id}))
	require.NotEmpty(t, history.History)

	decode[StatusResponse](t, h.call(t, "delete_ticket", map[string]any{"id": id}))
	requireToolError(t, h.call(t, "get_ticket", map[string]any{"id": id}), "NOT_FOUND")
}

func TestTools_CreateValidation(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.call(t, "create_ticket", map[string]any{
		"title":         "No type",
		"type_id":       0,
		"priority_id":   1,
		"department_id": 1,
	})
	requireToolError(t, res, "INVALID_INPUT")
	require.Zero(t, h.api.Requests("POST", "/tickets"))

	res = h.call(t, "create_ticket", map[string]any{
		"title":         "Bad date",
		"type_id":       1,
		"priority_id":   1,
		"department_id": 1,
		"due_date":      "tomorrow",
	})
	requireToolError(t, res, "INVALID_INPUT")
}

func TestTools_LoadMoreTickets(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 15; i++ {
		h.api.AddTicket(testserver.Username, ticket.Ticket{Title: fmt.Sprintf("ticket %d", i), TypeID: 1})
	}
	h.login(t)

	first := decode[TicketListResponse](t, h.call(t, "list_tickets", nil))
	require.Len(t, first.Items, 10)
	require.Equal(t, 15, first.Total)
	require.True(t, first.HasMore)

	more := decode[TicketListResponse](t, h.call(t, "load_more_tickets", nil))
	require.Len(t, more.Items, 5)
	require.Equal(t, 15, more.Cached)
	require.False(t, more.HasMore)

	before := h.api.Requests("GET", "/tickets")
	done := decode[TicketListResponse](t, h.call(t, "load_more_tickets", nil))
	require.Empty(t, done.Items)
	require.Equal(t, 15, done.Cached)
	require.Equal(t, before, h.api.Requests("GET", "/tickets"))
}

func TestTools_Notifications(t *testing.T) {
	h := newHarness(t)
	h.api.AddNotification(testserver.Username, notification.Notification{Title: "assigned"})
	h.api.AddNotification(testserver.Username, notification.Notification{Title: "commented"})
	h.login(t)

	list := decode[NotificationListResponse](t, h.call(t, "list_notifications", nil))
	require.Len(t, list.Items, 2)
	require.Equal(t, 2, list.UnreadCount)

	decode[StatusResponse](t, h.call(t, "mark_notification_read", map[string]any{"id": list.Items[0].ID}))
	decode[StatusResponse](t, h.call(t, "mark_all_notifications_read", nil))
	decode[StatusResponse](t, h.call(t, "mark_all_notifications_read", nil))

	list = decode[NotificationListResponse](t, h.call(t, "list_notifications", nil))
	require.Zero(t, list.UnreadCount)
}

func TestTools_WorkflowSteps(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	flows := decode[WorkflowListResponse](t, h.call(t, "list_workflows", nil))
	require.Len(t, flows.Items, 1)

	steps := decode[StepsResponse](t, h.call(t, "list_workflow_steps", map[string]any{"workflow_id": h.api.WorkflowID()}))
	require.Len(t, steps.Steps, 2)
	require.Equal(t, "Triage", steps.Steps[0].Name)
	require.Equal(t, "Resolve", steps.Steps[1].Name)
}

func TestTools_WorkflowStepCRUD(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	wfID := h.api.WorkflowID()

	requireToolError(t, h.call(t, "create_workflow_step", map[string]any{
		"workflow_id": wfID, "name": "", "step_order": 3, "status_id": 1,
	}), "INVALID_INPUT")
	require.Zero(t, h.api.Requests("POST", fmt.Sprintf("/workflows/%d/steps", wfID)))

	created := decode[StepResponse](t, h.call(t, "create_workflow_step", map[string]any{
		"workflow_id":   wfID,
		"name":          "Verify",
		"step_order":    3,
		"status_id":     1,
		"assignee_type": "role",
	}))
	require.NotNil(t, created.Step)
	require.Equal(t, "Verify", created.Step.Name)
	stepID := created.Step.ID

	updated := decode[StepResponse](t, h.call(t, "update_workflow_step", map[string]any{
		"workflow_id": wfID,
		"step_id":     stepID,
		"name":        "Verify fix",
		"step_order":  3,
		"status_id":   1,
	}))
	require.Equal(t, "Verify fix", updated.Step.Name)

	steps := decode[StepsResponse](t, h.call(t, "list_workflow_steps", map[string]any{"workflow_id": wfID}))
	require.Len(t, steps.Steps, 3)
	require.Equal(t, "Verify fix", steps.Steps[2].Name)

	decode[StatusResponse](t, h.call(t, "delete_workflow_step", map[string]any{"workflow_id": wfID, "step_id": stepID}))
	steps = decode[StepsResponse](t, h.call(t, "list_workflow_steps", map[string]any{"workflow_id": wfID}))
	require.Len(t, steps.Steps, 2)

	requireToolError(t, h.call(t, "delete_workflow_step", map[string]any{"workflow_id": wfID, "step_id": stepID}), "NOT_FOUND")
}

func TestTools_RevokedTokenRequiresLogin(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.api.RevokeAll()
	requireToolError(t, h.call(t, "list_tickets", nil), "LOGIN_REQUIRED")

	who := decode[SessionResponse](t, h.call(t, "whoami", nil))
	require.False(t, who.LoggedIn)

	h.login(t)
	decode[TicketListResponse](t, h.call(t, "list_tickets", nil))
}

func TestDocResources(t *testing.T) {
	h := newHarness(t)

	res, err := h.client.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "ticketdesk://docs/errors"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "LOGIN_REQUIRED")
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"not logged in", session.ErrNotLoggedIn, "LOGIN_REQUIRED"},
		{"unauthorized", &apiclient.StatusError{Status: 401, Message: apiclient.MsgUnauthorized}, "LOGIN_REQUIRED"},
		{"forbidden", fmt.Errorf("wrapped: %w", &apiclient.StatusError{Status: 403}), "FORBIDDEN"},
		{"not found", &apiclient.StatusError{Status: 404}, "NOT_FOUND"},
		{"rate limited", &apiclient.StatusError{Status: 429}, "RATE_LIMITED"},
		{"server", &apiclient.StatusError{Status: 500}, "SERVER_ERROR"},
		{"unavailable", &apiclient.StatusError{Status: 503}, "UNAVAILABLE"},
		{"bad request", &apiclient.StatusError{Status: 400, Message: "bad page"}, "REQUEST_FAILED"},
		{"validation", &apiclient.ValidationError{StatusError: apiclient.StatusError{Status: 422, Message: "title is required"}}, "VALIDATION_FAILED"},
		{"business", &apiclient.BusinessError{Code: "AUTH_FAILED", Message: "bad password"}, "AUTH_FAILED"},
		{"network", &apiclient.NetworkError{Method: "GET", Path: "/tickets", Err: errors.New("refused")}, "NETWORK_ERROR"},
		{"stale", listing.ErrStale, "SUPERSEDED"},
		{"busy", listing.ErrBusy, "BUSY"},
		{"ticket id", ticket.ErrInvalidID, "INVALID_ID"},
		{"ticket input", ticket.ErrInvalidInput, "INVALID_INPUT"},
		{"step input", workflow.ErrInvalidInput, "INVALID_INPUT"},
		{"other", errors.New("boom"), "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.code, MapError(tt.err).Code)
		})
	}
	require.Nil(t, MapError(nil))
}

func TestRedact(t *testing.T) {
	out := formatPayload(map[string]any{
		"name":      "login",
		"arguments": map[string]any{"username": "alice", "password": "secret"},
	})
	require.NotContains(t, out, "secret")
	require.Contains(t, out, "alice")
}
