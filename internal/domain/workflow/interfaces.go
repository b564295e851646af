package workflow

import (
	"context"

	"github.com/rpggio/ticketdesk/internal/domain/listing"
)

// API is the server side of workflow management.
type API interface {
	List(ctx context.Context, params ListParams) (*listing.Page[Workflow], error)
	Get(ctx context.Context, id int64) (*Workflow, error)
	Steps(ctx context.Context, workflowID int64) ([]Step, error)
	CreateStep(ctx context.Context, workflowID int64, form StepForm) (*Step, error)
	UpdateStep(ctx context.Context, workflowID, stepID int64, form StepForm) (*Step, error)
	DeleteStep(ctx context.Context, workflowID, stepID int64) error
}
