package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `ticketdesk is a client for a ticket management API: tickets, notifications and workflows.

Rules of engagement:
1) Call login(username, password) first. whoami shows the session; has_permission checks a permission code.
2) Browse: list_tickets loads page 1 and replaces the cached list. load_more_tickets appends the next page and
   does nothing when has_more is false or a list request is already running.
3) Write: create_ticket, update_ticket, delete_ticket. A ticket created while the list is sorted newest first
   appears at the top; under any other sort the list is reloaded from the server.
4) Details: get_ticket, ticket_history, list_ticket_comments, list_ticket_attachments, list_ticket_approvals.
5) Notifications: list_notifications reports unread_count; mark_all_notifications_read is safe to repeat.

Errors carry a code and a recovery hint. LOGIN_REQUIRED means the token is gone or expired: call login again.

Docs:
- ticketdesk://docs/index
- ticketdesk://docs/errors
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "ticketdesk://docs/index",
		Name:        "docs_index",
		Title:       "ticketdesk docs index",
		Description: "Tool overview and list behaviour.",
		Content: `# ticketdesk

## Session

- login stores the token and loads permissions. If the profile cannot be loaded the session is cleared.
- Any 401 from the API clears the session. The next tool call returns LOGIN_REQUIRED.
- logout always clears the local session, even if the server cannot be reached.

## Lists

Ticket and notification lists are cached per server process.

- Page 1 replaces the cache. Later pages append and skip ids already cached.
- A new page 1 request cancels a list request still running; its result is discarded (SUPERSEDED).
- load_more_* is a no-op when has_more is false or another list request runs.

## Sorting and creation

- Default sort is newest first. New tickets are put at the top and total grows by one.
- For any other sort_by/sort_order the first page is reloaded after a create.
- Updates replace the cached ticket in place; the list is not re-sorted.
`,
	},
	{
		URI:         "ticketdesk://docs/errors",
		Name:        "docs_errors",
		Title:       "Error codes",
		Description: "Tool error codes and how to recover.",
		Content: `# Error codes

| Code | Meaning | Recovery |
|---|---|---|
| LOGIN_REQUIRED | no token, or the API answered 401 | call login |
| FORBIDDEN | missing permission | check has_permission |
| NOT_FOUND | unknown id | check the id |
| VALIDATION_FAILED | the API rejected fields; details lists them | fix the fields |
| INVALID_INPUT / INVALID_ID | rejected before any request | fix the arguments |
| RATE_LIMITED | too many requests | wait |
| SERVER_ERROR | API internal error | contact the administrator |
| UNAVAILABLE | API temporarily down | retry later |
| NETWORK_ERROR | no response from the API | check the base URL |
| SUPERSEDED | a newer list request replaced this one | use the newer result |
| BUSY | a list request is already running | retry when it completes |
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
