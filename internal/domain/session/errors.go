package session

import "errors"

var (
	// ErrInvalidInput indicates missing login credentials.
	ErrInvalidInput = errors.New("invalid session input")
	// ErrNotLoggedIn indicates the operation needs a token and none is held.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrEmptyToken indicates the login response carried no token.
	ErrEmptyToken = errors.New("login response missing token")
)
