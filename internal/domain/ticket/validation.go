package ticket

import "strings"

// ValidateCreateForm checks the fields the server requires for a new ticket.
func ValidateCreateForm(form CreateForm) error {
	if strings.TrimSpace(form.Title) == "" {
		return ErrInvalidInput
	}
	if form.TypeID <= 0 || form.PriorityID <= 0 || form.DepartmentID <= 0 {
		return ErrInvalidInput
	}
	return nil
}

// ValidateUpdateForm rejects updates that blank required fields.
func ValidateUpdateForm(form UpdateForm) error {
	if form.Title != nil && strings.TrimSpace(*form.Title) == "" {
		return ErrInvalidInput
	}
	for _, id := range []*int64{form.TypeID, form.PriorityID, form.DepartmentID, form.StatusID} {
		if id != nil && *id <= 0 {
			return ErrInvalidInput
		}
	}
	return nil
}
