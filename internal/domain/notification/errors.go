package notification

import "errors"

// ErrInvalidID indicates a non-positive notification id.
var ErrInvalidID = errors.New("invalid notification id")
