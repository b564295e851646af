package restapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rpggio/ticketdesk/internal/apiclient"
	"github.com/rpggio/ticketdesk/internal/domain/listing"
	"github.com/rpggio/ticketdesk/internal/domain/workflow"
)

var _ workflow.API = (*Workflows)(nil)

// Workflows talks to /workflows and their steps.
type Workflows struct {
	client *apiclient.Client
}

// NewWorkflows creates the workflow endpoints.
func NewWorkflows(client *apiclient.Client) *Workflows {
	return &Workflows{client: client}
}

func workflowQuery(p workflow.ListParams) url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.IsActive != nil {
		v.Set("isActive", strconv.FormatBool(*p.IsActive))
	}
	return v
}

func stepsPath(workflowID int64) string {
	return fmt.Sprintf("/workflows/%d/steps", workflowID)
}

func (w *Workflows) List(ctx context.Context, params workflow.ListParams) (*listing.Page[workflow.Workflow], error) {
	var out listing.Page[workflow.Workflow]
	if err := w.client.Get(ctx, "/workflows", workflowQuery(params), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *Workflows) Get(ctx context.Context, id int64) (*workflow.Workflow, error) {
	var out workflow.Workflow
	if err := w.client.Get(ctx, fmt.Sprintf("/workflows/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *Workflows) Steps(ctx context.Context, workflowID int64) ([]workflow.Step, error) {
	var out []workflow.Step
	if err := w.client.Get(ctx, stepsPath(workflowID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *Workflows) CreateStep(ctx context.Context, workflowID int64, form workflow.StepForm) (*workflow.Step, error) {
	var out workflow.Step
	if err := w.client.Post(ctx, stepsPath(workflowID), form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *Workflows) UpdateStep(ctx context.Context, workflowID, stepID int64, form workflow.StepForm) (*workflow.Step, error) {
	var out workflow.Step
	if err := w.client.Put(ctx, fmt.Sprintf("%s/%d", stepsPath(workflowID), stepID), form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *Workflows) DeleteStep(ctx context.Context, workflowID, stepID int64) error {
	return w.client.Delete(ctx, fmt.Sprintf("%s/%d", stepsPath(workflowID), stepID), nil)
}
