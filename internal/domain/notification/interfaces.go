package notification

import "context"

// API is the server side of notifications.
type API interface {
	List(ctx context.Context, params ListParams) (*Page, error)
	MarkAsRead(ctx context.Context, id int64) error
	MarkAllAsRead(ctx context.Context) error
}
