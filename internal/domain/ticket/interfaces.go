package ticket

import (
	"context"
	"io"

	"github.com/rpggio/ticketdesk/internal/domain/listing"
)

// API is the server side of ticket management.
type API interface {
	List(ctx context.Context, params ListParams) (*listing.Page[Ticket], error)
	Get(ctx context.Context, id int64) (*Ticket, error)
	Create(ctx context.Context, form CreateForm) (*Ticket, error)
	Update(ctx context.Context, id int64, form UpdateForm) (*Ticket, error)
	Delete(ctx context.Context, id int64) error

	Comments(ctx context.Context, id int64) ([]Comment, error)
	AddComment(ctx context.Context, id int64, form CommentForm) (*Comment, error)
	Attachments(ctx context.Context, id int64) ([]Attachment, error)
	UploadAttachment(ctx context.Context, id int64, filename string, file io.Reader) (*Attachment, error)
	History(ctx context.Context, id int64) ([]HistoryEntry, error)
	Approvals(ctx context.Context, id int64) ([]Approval, error)
	SubmitApproval(ctx context.Context, id int64, form ApprovalForm) (*Approval, error)
	Stats(ctx context.Context) (*Stats, error)
}
