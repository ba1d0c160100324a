// Package apperror defines the domain error taxonomy shared by every layer.
//
// Services and repositories return *AppError values wrapping one of the
// sentinels below. The HTTP layer maps the sentinel to a status code; nothing
// below the handler package knows about HTTP.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream error")
)

type AppError struct {
	Err     error  // sentinel
	Message string // human-readable, safe to return to the client
	Field   string // optional: offending request field
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// MissingFields reports every absent required body field in one message,
// e.g. "Missing required fields: code, credit".
func MissingFields(fields ...string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: "Missing required fields: " + strings.Join(fields, ", "),
		Field:   strings.Join(fields, ","),
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// ConflictMessage is Conflict with a caller-supplied message.
func ConflictMessage(message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message}
}

// Unauthorized means there is no usable session. HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Upstream wraps a failure of an external system (GitHub, contributions API).
// The cause is kept for logs; only Message reaches the client.
func Upstream(service string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrUpstream, cause),
		Message: fmt.Sprintf("%s request failed", service),
	}
}
