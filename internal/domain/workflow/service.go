package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/rpggio/ticketdesk/internal/domain/listing"
)

// Service handles workflow and workflow step operations. It keeps no cache.
type Service struct {
	api    API
	logger *slog.Logger
}

// NewService creates a new workflow service.
func NewService(api API, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{api: api, logger: logger}
}

// List returns a page of workflows.
func (s *Service) List(ctx context.Context, params ListParams) (*listing.Page[Workflow], error) {
	page, err := s.api.List(ctx, params)
	if err != nil {
		s.logger.Error("listing workflows failed", "error", err)
		return nil, fmt.Errorf("listing workflows: %w", err)
	}
	return page, nil
}

// Get returns one workflow with its steps.
func (s *Service) Get(ctx context.Context, id int64) (*Workflow, error) {
	wf, err := s.api.Get(ctx, id)
	if err != nil {
		s.logger.Error("loading workflow failed", "workflow_id", id, "error", err)
		return nil, fmt.Errorf("loading workflow %d: %w", id, err)
	}
	return wf, nil
}

// Steps returns the steps of a workflow ordered by StepOrder.
func (s *Service) Steps(ctx context.Context, workflowID int64) ([]Step, error) {
	steps, err := s.api.Steps(ctx, workflowID)
	if err != nil {
		s.logger.Error("listing workflow steps failed", "workflow_id", workflowID, "error", err)
		return nil, fmt.Errorf("listing steps of workflow %d: %w", workflowID, err)
	}
	sortSteps(steps)
	return steps, nil
}

// CreateStep adds a step to a workflow.
func (s *Service) CreateStep(ctx context.Context, workflowID int64, form StepForm) (*Step, error) {
	if err := ValidateStepForm(form); err != nil {
		return nil, err
	}
	step, err := s.api.CreateStep(ctx, workflowID, form)
	if err != nil {
		s.logger.Error("creating workflow step failed", "workflow_id", workflowID, "error", err)
		return nil, fmt.Errorf("creating step: %w", err)
	}
	return step, nil
}

// UpdateStep replaces a workflow step.
func (s *Service) UpdateStep(ctx context.Context, workflowID, stepID int64, form StepForm) (*Step, error) {
	if err := ValidateStepForm(form); err != nil {
		return nil, err
	}
	step, err := s.api.UpdateStep(ctx, workflowID, stepID, form)
	if err != nil {
		s.logger.Error("updating workflow step failed", "workflow_id", workflowID, "step_id", stepID, "error", err)
		return nil, fmt.Errorf("updating step %d: %w", stepID, err)
	}
	return step, nil
}

// DeleteStep removes a workflow step.
func (s *Service) DeleteStep(ctx context.Context, workflowID, stepID int64) error {
	if err := s.api.DeleteStep(ctx, workflowID, stepID); err != nil {
		s.logger.Error("deleting workflow step failed", "workflow_id", workflowID, "step_id", stepID, "error", err)
		return fmt.Errorf("deleting step %d: %w", stepID, err)
	}
	return nil
}

func sortSteps(steps []Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].StepOrder < steps[j].StepOrder
	})
}
