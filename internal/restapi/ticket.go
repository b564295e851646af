package restapi

import (
	"context"
	"fmt"
	"io"

	"github.com/rpggio/ticketdesk/internal/apiclient"
	"github.com/rpggio/ticketdesk/internal/domain/listing"
	"github.com/rpggio/ticketdesk/internal/domain/ticket"
)

var _ ticket.API = (*Tickets)(nil)

// Tickets talks to /tickets and its sub-resources.
type Tickets struct {
	client *apiclient.Client
}

// NewTickets creates the ticket endpoints.
func NewTickets(client *apiclient.Client) *Tickets {
	return &Tickets{client: client}
}

func ticketPath(id int64, sub ...string) string {
	p := fmt.Sprintf("/tickets/%d", id)
	for _, s := range sub {
		p += "/" + s
	}
	return p
}

func (t *Tickets) List(ctx context.Context, params ticket.ListParams) (*listing.Page[ticket.Ticket], error) {
	var out listing.Page[ticket.Ticket]
	if err := t.client.Get(ctx, "/tickets", params.Values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *Tickets) Get(ctx context.Context, id int64) (*ticket.Ticket, error) {
	var out ticket.Ticket
	if err := t.client.Get(ctx, ticketPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *Tickets) Create(ctx context.Context, form ticket.CreateForm) (*ticket.Ticket, error) {
	var out ticket.Ticket
	if err := t.client.Post(ctx, "/tickets", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *Tickets) Update(ctx context.Context, id int64, form ticket.UpdateForm) (*ticket.Ticket, error) {
	var out ticket.Ticket
	if err := t.client.Put(ctx, ticketPath(id), form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *Tickets) Delete(ctx context.Context, id int64) error {
	return t.client.Delete(ctx, ticketPath(id), nil)
}

func (t *Tickets) Comments(ctx context.Context, id int64) ([]ticket.Comment, error) {
	var out []ticket.Comment
	if err := t.client.Get(ctx, ticketPath(id, "comments"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tickets) AddComment(ctx context.Context, id int64, form ticket.CommentForm) (*ticket.Comment, error) {
	var out ticket.Comment
	if err := t.client.Post(ctx, ticketPath(id, "comments"), form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *Tickets) Attachments(ctx context.Context, id int64) ([]ticket.Attachment, error) {
	var out []ticket.Attachment
	if err := t.client.Get(ctx, ticketPath(id, "attachments"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tickets) UploadAttachment(ctx context.Context, id int64, filename string, file io.Reader) (*ticket.Attachment, error) {
	var out ticket.Attachment
	if err := t.client.Upload(ctx, ticketPath(id, "attachments"), filename, file, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *Tickets) History(ctx context.Context, id int64) ([]ticket.HistoryEntry, error) {
	var out []ticket.HistoryEntry
	if err := t.client.Get(ctx, ticketPath(id, "history"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tickets) Approvals(ctx context.Context, id int64) ([]ticket.Approval, error) {
	var out []ticket.Approval
	if err := t.client.Get(ctx, ticketPath(id, "approvals"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tickets) SubmitApproval(ctx context.Context, id int64, form ticket.ApprovalForm) (*ticket.Approval, error) {
	var out ticket.Approval
	if err := t.client.Post(ctx, ticketPath(id, "approvals"), form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *Tickets) Stats(ctx context.Context) (*ticket.Stats, error) {
	var out ticket.Stats
	if err := t.client.Get(ctx, "/tickets/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
