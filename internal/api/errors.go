package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultErrorMessage is used when a failed response carries nothing
// readable.
const DefaultErrorMessage = "An unexpected error occurred"

// Error is a non-2xx response from the attempt API, reduced to one
// human-readable message.
type Error struct {
	Status  int
	Message string
	// Fields holds per-field validation messages when the server sent them.
	Fields map[string]string
}

func (e *Error) Error() string { return e.Message }

// ErrInvalidPayload means a 2xx response did not match the expected shape.
type ErrInvalidPayload struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidPayload) Error() string {
	return fmt.Sprintf("invalid response payload: %v", e.Err)
}

func (e *ErrInvalidPayload) Unwrap() error { return e.Err }

// ErrUnavailable means the server could not be reached or answered with a
// transient failure (5xx or 429).
type ErrUnavailable struct {
	Status     int
	RetryAfter time.Duration
	Err        error
}

func (e *ErrUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("attempt API unavailable: %v", e.Err)
	}
	return "attempt API unavailable"
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// normalizeError turns a failed response body into an *Error. The message
// is taken from "detail", then "message", then the string values of a
// field-error object joined with ", ", else DefaultErrorMessage.
func normalizeError(status int, body []byte) *Error {
	e := &Error{Status: status, Message: DefaultErrorMessage}

	var data map[string]any
	if len(body) == 0 || json.Unmarshal(body, &data) != nil {
		return e
	}

	if s, ok := data["detail"].(string); ok && s != "" {
		e.Message = s
		return e
	}
	if s, ok := data["message"].(string); ok && s != "" {
		e.Message = s
		return e
	}

	keys := make([]string, 0, len(data))
	for k, v := range data {
		if _, ok := v.(string); ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return e
	}
	sort.Strings(keys)

	e.Fields = make(map[string]string, len(keys))
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		v := data[k].(string)
		e.Fields[k] = v
		if v != "" {
			msgs = append(msgs, v)
		}
	}
	if len(msgs) > 0 {
		e.Message = strings.Join(msgs, ", ")
	}
	return e
}
