package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is matched by a 401 response.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is matched by a 403 response.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is matched by a 404 response.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited is matched by a 429 response.
	ErrRateLimited = errors.New("rate limited")
	// ErrServer is matched by a 500 response.
	ErrServer = errors.New("server error")
	// ErrUnavailable is matched by 502, 503 and 504 responses.
	ErrUnavailable = errors.New("service unavailable")
)

// User-facing messages for each failure class.
const (
	MsgNetwork      = "network connection failed, please check your network settings"
	MsgUnauthorized = "login expired, please log in again"
	MsgForbidden    = "you do not have permission to perform this operation"
	MsgNotFound     = "the requested resource does not exist"
	MsgInvalid      = "invalid request parameters"
	MsgRateLimited  = "too many requests, please try again later"
	MsgServer       = "internal server error, please contact the administrator"
	MsgUnavailable  = "service temporarily unavailable, please try again later"
	MsgFailed       = "request failed"
)

// NetworkError reports that no response was received.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusError is a 4xx/5xx response.
type StatusError struct {
	Status  int
	Message string
	Code    string
	Details json.RawMessage
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Is lets errors.Is match a status class sentinel.
func (e *StatusError) Is(target error) bool {
	return target != nil && statusSentinel(e.Status) == target
}

// ValidationError is a 422 response. Message holds the first field message
// when the server supplied one.
type ValidationError struct {
	StatusError
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return &e.StatusError
}

// BusinessError is a 2xx response whose envelope has success=false.
type BusinessError struct {
	Message string
	Code    string
	Details json.RawMessage
}

func (e *BusinessError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// UserMessage returns the fixed user-facing message for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var netErr *NetworkError
	var valErr *ValidationError
	var statusErr *StatusError
	var bizErr *BusinessError
	switch {
	case errors.As(err, &valErr):
		return valErr.Message
	case errors.As(err, &statusErr):
		return statusErr.Message
	case errors.As(err, &bizErr):
		return bizErr.Message
	case errors.As(err, &netErr):
		return MsgNetwork
	default:
		return err.Error()
	}
}

func statusSentinel(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusInternalServerError:
		return ErrServer
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		return nil
	}
}

// newStatusError maps a failed response to the typed error for its status.
func newStatusError(status int, env envelope) error {
	base := StatusError{
		Status:  status,
		Code:    env.Code,
		Details: env.Details,
	}
	switch status {
	case http.StatusUnauthorized:
		base.Message = MsgUnauthorized
	case http.StatusForbidden:
		base.Message = MsgForbidden
	case http.StatusNotFound:
		base.Message = MsgNotFound
	case http.StatusUnprocessableEntity:
		fields, first := parseValidationDetails(env.Details)
		switch {
		case first != "":
			base.Message = first
		case env.Message != "":
			base.Message = env.Message
		default:
			base.Message = MsgInvalid
		}
		return &ValidationError{StatusError: base, Fields: fields}
	case http.StatusTooManyRequests:
		base.Message = MsgRateLimited
	case http.StatusInternalServerError:
		base.Message = MsgServer
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		base.Message = MsgUnavailable
	default:
		if env.Message != "" {
			base.Message = env.Message
		} else {
			base.Message = fmt.Sprintf("%s (%d)", MsgFailed, status)
		}
	}
	return &base
}

// parseValidationDetails reads a {"field": "msg" | ["msg", ...]} object in
// document order and returns the fields plus the first message seen.
func parseValidationDetails(raw json.RawMessage) (map[string][]string, string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, ""
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, ""
	}

	fields := make(map[string][]string)
	first := ""
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			break
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			break
		}
		msgs := validationMessages(value)
		if len(msgs) == 0 {
			continue
		}
		fields[key] = msgs
		if first == "" {
			first = msgs[0]
		}
	}
	if len(fields) == 0 {
		return nil, first
	}
	return fields, first
}

func validationMessages(value json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(value, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}
	var many []string
	if err := json.Unmarshal(value, &many); err == nil {
		out := many[:0]
		for _, msg := range many {
			if msg != "" {
				out = append(out, msg)
			}
		}
		return out
	}
	return nil
}
