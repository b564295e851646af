package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/ticketdesk/internal/apiclient"
	"github.com/rpggio/ticketdesk/internal/domain/listing"
	"github.com/rpggio/ticketdesk/internal/domain/notification"
	"github.com/rpggio/ticketdesk/internal/domain/session"
	"github.com/rpggio/ticketdesk/internal/domain/ticket"
	"github.com/rpggio/ticketdesk/internal/domain/workflow"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps API client and domain errors to MCP error codes. Unknown
// errors map to INTERNAL.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var valErr *apiclient.ValidationError
	var bizErr *apiclient.BusinessError
	var netErr *apiclient.NetworkError
	var statusErr *apiclient.StatusError
	switch {
	case errors.Is(err, session.ErrNotLoggedIn), errors.Is(err, apiclient.ErrUnauthorized):
		return &APIError{Code: "LOGIN_REQUIRED", Message: apiclient.MsgUnauthorized, RecoveryHint: "Call login first"}
	case errors.Is(err, session.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "username and password are required"}
	case errors.Is(err, session.ErrEmptyToken):
		return &APIError{Code: "LOGIN_FAILED", Message: "server returned no token", RecoveryHint: "Retry login"}
	case errors.Is(err, ticket.ErrInvalidID), errors.Is(err, notification.ErrInvalidID):
		return &APIError{Code: "INVALID_ID", Message: "id must be a positive integer"}
	case errors.Is(err, ticket.ErrInvalidInput), errors.Is(err, workflow.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Check required fields"}
	case errors.Is(err, listing.ErrStale):
		return &APIError{Code: "SUPERSEDED", Message: "a newer list request replaced this one", RecoveryHint: "Use the result of the latest list call"}
	case errors.Is(err, listing.ErrBusy):
		return &APIError{Code: "BUSY", Message: "another list request is in flight", RecoveryHint: "Retry when it completes"}
	case errors.As(err, &valErr):
		return &APIError{Code: "VALIDATION_FAILED", Message: valErr.Message, Details: valErr.Fields, RecoveryHint: "Fix the listed fields"}
	case errors.Is(err, apiclient.ErrForbidden):
		return &APIError{Code: "FORBIDDEN", Message: apiclient.MsgForbidden, RecoveryHint: "Check permissions with has_permission"}
	case errors.Is(err, apiclient.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: apiclient.MsgNotFound, RecoveryHint: "Check ID"}
	case errors.Is(err, apiclient.ErrRateLimited):
		return &APIError{Code: "RATE_LIMITED", Message: apiclient.MsgRateLimited, RecoveryHint: "Wait before retrying"}
	case errors.Is(err, apiclient.ErrServer):
		return &APIError{Code: "SERVER_ERROR", Message: apiclient.MsgServer}
	case errors.Is(err, apiclient.ErrUnavailable):
		return &APIError{Code: "UNAVAILABLE", Message: apiclient.MsgUnavailable, RecoveryHint: "Retry later"}
	case errors.As(err, &bizErr):
		code := bizErr.Code
		if code == "" {
			code = "REQUEST_FAILED"
		}
		return &APIError{Code: code, Message: bizErr.Message}
	case errors.As(err, &netErr):
		return &APIError{Code: "NETWORK_ERROR", Message: apiclient.MsgNetwork, RecoveryHint: "Check the API base URL"}
	case errors.As(err, &statusErr):
		return &APIError{Code: "REQUEST_FAILED", Message: statusErr.Message}
	default:
		return &APIError{Code: "INTERNAL", Message: apiclient.UserMessage(err)}
	}
}

// toolError converts err for return from a tool handler.
func toolError(err error) error {
	if err == nil {
		return nil
	}
	return MapError(err)
}
