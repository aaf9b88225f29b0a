// Package apperror defines the application's error kinds.
//
// Services return these; the HTTP layer maps them to status codes in exactly
// one place (handler/response.go). The sentinel values below are the full
// error vocabulary of the system:
//
//	ErrUnauthorized → 401  no or invalid session
//	ErrForbidden    → 403  authenticated but not the owner
//	ErrNotFound     → 404  missing entity (or missing remote README)
//	ErrConflict     → 409  uniqueness violation (email, githubId)
//	ErrValidation   → 400  schema failure or a forbidden action (self-delete)
//	ErrUpstream     → 500  remote API failure other than not-found
//
// Anything that is not an AppError collapses to a generic 500 — internal
// details never reach the caller.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream failure")
)

// FieldError names one failing field in a validation error. A schema failure
// reports every failing field, not just the first.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Err     error        // sentinel kind
	Message string       // Human-readable error message
	Fields  []FieldError // Populated for validation errors only
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

// ValidationFailed reports a single failing field. For multi-field schema
// failures use Validation, which carries the full list.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

// Validation reports a schema failure with every failing field attached.
func Validation(fields []FieldError) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: "invalid request data",
		Fields:  fields,
	}
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists with %s", resource, key),
	}
}

// ConflictState reports an operation blocked by the resource's current
// state rather than a duplicate key (e.g. deleting a member who still owns
// projects).
func ConflictState(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for requests without a valid session.
func Unauthorized() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "valid authentication required",
	}
}

// Upstream wraps a remote API failure that is not a not-found. The inner
// error is kept for logs; only the message is exposed to the caller.
func Upstream(message string) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: message,
	}
}
