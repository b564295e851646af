package ticket

import "errors"

var (
	// ErrInvalidInput indicates an invalid ticket form.
	ErrInvalidInput = errors.New("invalid ticket input")
	// ErrInvalidID indicates a non-positive ticket id.
	ErrInvalidID = errors.New("invalid ticket id")
)
