package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// addTool registers fn as a tool. Errors are mapped to APIError, which the
// SDK reports as an IsError result carrying the code, message and hint.
//
// Out is left untyped so responses embedding time.Time are not checked
// against an inferred output schema.
func addTool[In, Out any](server *sdkmcp.Server, name, description string, fn func(context.Context, In) (*Out, error)) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
			out, err := fn(ctx, in)
			if err != nil {
				return nil, nil, toolError(err)
			}
			return nil, out, nil
		})
}

func registerTools(server *sdkmcp.Server, h *Handler) {
	// Session
	addTool(server, "login", "Log in to the ticket desk and load the user's permissions", h.Login)
	addTool(server, "logout", "Log out and forget the stored token", h.Logout)
	addTool(server, "whoami", "Show the logged-in user, session state and permission codes", h.WhoAmI)
	addTool(server, "has_permission", "Check whether the logged-in user holds a permission code", h.HasPermission)

	// Tickets
	addTool(server, "list_tickets", "List tickets with filters; page 1 (default) replaces the cached list", h.ListTickets)
	addTool(server, "load_more_tickets", "Fetch the next page of the current ticket list; no-op when everything is loaded", h.LoadMoreTickets)
	addTool(server, "get_ticket", "Get one ticket with its details", h.GetTicket)
	addTool(server, "create_ticket", "Create a ticket (title, type_id, priority_id and department_id are required)", h.CreateTicket)
	addTool(server, "update_ticket", "Update fields of a ticket; omitted fields are left unchanged", h.UpdateTicket)
	addTool(server, "delete_ticket", "Delete a ticket", h.DeleteTicket)
	addTool(server, "list_ticket_comments", "List comments on a ticket", h.ListComments)
	addTool(server, "add_ticket_comment", "Add a comment to a ticket", h.AddComment)
	addTool(server, "list_ticket_attachments", "List files attached to a ticket", h.ListAttachments)
	addTool(server, "upload_ticket_attachment", "Attach a file to a ticket", h.UploadAttachment)
	addTool(server, "ticket_history", "Show the change history of a ticket", h.TicketHistory)
	addTool(server, "list_ticket_approvals", "List workflow approvals recorded on a ticket", h.ListApprovals)
	addTool(server, "submit_ticket_approval", "Approve or reject a ticket's workflow step", h.SubmitApproval)
	addTool(server, "ticket_stats", "Show aggregate ticket counts", h.TicketStats)

	// Notifications
	addTool(server, "list_notifications", "List notifications, newest first, with the unread count", h.ListNotifications)
	addTool(server, "load_more_notifications", "Fetch the next page of notifications", h.LoadMoreNotifications)
	addTool(server, "mark_notification_read", "Mark one notification as read", h.MarkNotificationRead)
	addTool(server, "mark_all_notifications_read", "Mark every notification as read", h.MarkAllNotificationsRead)

	// Workflows
	addTool(server, "list_workflows", "List ticket workflows", h.ListWorkflows)
	addTool(server, "get_workflow", "Get a workflow with its steps", h.GetWorkflow)
	addTool(server, "list_workflow_steps", "List the steps of a workflow in order", h.ListWorkflowSteps)
	addTool(server, "create_workflow_step", "Add a step to a workflow (name, step_order and status_id are required)", h.CreateWorkflowStep)
	addTool(server, "update_workflow_step", "Replace a workflow step with the given fields", h.UpdateWorkflowStep)
	addTool(server, "delete_workflow_step", "Remove a step from a workflow", h.DeleteWorkflowStep)
}
