// Package apperror defines the application's error taxonomy.
//
// Services return these typed errors; the HTTP layer translates them into
// status codes and the uniform response envelope. Keeping the taxonomy
// here means the service layer never imports net/http.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors. Handlers check these with errors.Is to pick a status
// code; everything not matching one of them is treated as a 500.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldError is one failing field in a validation error. The registration
// and song endpoints report every failing field, not just the first.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError carries a sentinel (for errors.Is), a human-readable message,
// and, for validation failures, the per-field breakdown.
type AppError struct {
	Err     error        // sentinel cause
	Message string       // human-readable error message
	Fields  []FieldError // optional: field-level validation messages
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing resource. Ownership failures use the same
// error so callers cannot distinguish "not yours" from "does not exist".
func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// ValidationFailed reports a single invalid field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

// ValidationErrors reports a batch of failing fields in one error.
func ValidationErrors(fields []FieldError) *AppError {
	msg := "validation errors"
	if len(fields) == 1 {
		msg = fields[0].Message
	}
	return &AppError{
		Err:     ErrValidation,
		Message: msg,
		Fields:  fields,
	}
}

// Conflict reports a uniqueness violation (duplicate email).
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized reports an authentication failure: bad credentials, an
// unverified account, or a missing/invalid session token.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
