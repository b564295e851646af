package workflow

import "strings"

// ValidateStepForm checks the fields the server requires for a step.
func ValidateStepForm(form StepForm) error {
	if strings.TrimSpace(form.Name) == "" {
		return ErrInvalidInput
	}
	if form.StatusID <= 0 {
		return ErrInvalidInput
	}
	if form.StepOrder < 1 {
		return ErrInvalidInput
	}
	switch form.AssigneeType {
	case "", AssigneeUser, AssigneeRole, AssigneeDepartment:
	default:
		return ErrInvalidInput
	}
	return nil
}
