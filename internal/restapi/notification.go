package restapi

import (
	"context"
	"fmt"

	"github.com/rpggio/ticketdesk/internal/apiclient"
	"github.com/rpggio/ticketdesk/internal/domain/notification"
)

var _ notification.API = (*Notifications)(nil)

// Notifications talks to /notifications.
type Notifications struct {
	client *apiclient.Client
}

// NewNotifications creates the notification endpoints.
func NewNotifications(client *apiclient.Client) *Notifications {
	return &Notifications{client: client}
}

func (n *Notifications) List(ctx context.Context, params notification.ListParams) (*notification.Page, error) {
	var out notification.Page
	if err := n.client.Get(ctx, "/notifications", params.Values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (n *Notifications) MarkAsRead(ctx context.Context, id int64) error {
	return n.client.Put(ctx, fmt.Sprintf("/notifications/%d/read", id), nil, nil)
}

func (n *Notifications) MarkAllAsRead(ctx context.Context) error {
	return n.client.Put(ctx, "/notifications/read-all", nil, nil)
}
