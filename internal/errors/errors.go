package errors

import (
	"fmt"
)

// APIError is the failure type domain services return. Handlers pass it up
// unchanged; the error-normalizer middleware renders the client envelope.
type APIError struct {
	Code       ErrorCode
	StatusCode int
	Message    string
	// Errors carries per-field messages for multi-field validation failures.
	Errors []string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, message string) *APIError {
	return &APIError{
		Code:       code,
		StatusCode: code.StatusCode(),
		Message:    message,
	}
}

// Unauthenticated creates a 401 error (missing, invalid or expired credential)
func Unauthenticated(message string) *APIError {
	return newError(ErrUnauthenticated, message)
}

// Forbidden creates a 403 error (authenticated but insufficient role or ownership)
func Forbidden(message string) *APIError {
	return newError(ErrForbidden, message)
}

// NotFound creates a 404 error. Ownership mismatches on scoped queries produce
// the same error as a missing resource so existence is not leaked to non-owners.
func NotFound(message string) *APIError {
	return newError(ErrNotFound, message)
}

// Conflict creates a 409 error (uniqueness violation detected up front)
func Conflict(message string) *APIError {
	return newError(ErrConflict, message)
}

// Validation creates a 400 error, optionally carrying per-field messages.
func Validation(message string, fieldErrors ...string) *APIError {
	err := newError(ErrValidation, message)
	err.Errors = fieldErrors
	return err
}

// Internal creates a 500 error
func Internal(message string) *APIError {
	return newError(ErrInternal, message)
}

// MalformedID creates the 404 returned for an identifier that cannot possibly
// address a resource (not a valid UUID), naming the offending field.
func MalformedID(field string) *APIError {
	return newError(ErrNotFound, fmt.Sprintf("Resource not found. Invalid: %s", field))
}

// Duplicate creates the 400 returned when the database reports a uniqueness
// violation that was not caught by an up-front check.
func Duplicate(field string) *APIError {
	return &APIError{
		Code:       ErrValidation,
		StatusCode: ErrValidation.StatusCode(),
		Message:    fmt.Sprintf("Duplicate field value entered: %s. Please use another value.", field),
	}
}
