package workflow

import "errors"

var (
	// ErrInvalidInput indicates an invalid workflow step form.
	ErrInvalidInput = errors.New("invalid workflow input")
)
