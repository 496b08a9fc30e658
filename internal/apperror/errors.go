// Package apperror carries HTTP status and a user-facing message alongside
// the underlying error.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common cases
var (
	ErrBadRequest  = errors.New("bad request")
	ErrValidation  = errors.New("validation error")
	ErrIneligible  = errors.New("applicant is not eligible")
	ErrUnsupported = errors.New("unsupported")
	ErrInternal    = errors.New("internal server error")
)

// AppError wraps errors with HTTP status and user-friendly message
type AppError struct {
	Err        error  // Original error (for logging)
	Message    string // User-friendly message
	StatusCode int    // HTTP status code
	Field      string // Optional field name for validation errors
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// ValidationError wraps a field-level input error. cause is kept for errors.Is.
func ValidationError(field, message string, cause error) *AppError {
	if cause == nil {
		cause = ErrValidation
	}
	return &AppError{
		Err:        cause,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Field:      field,
	}
}

func Ineligible(message string) *AppError {
	if message == "" {
		message = "eligibility check required before calculating"
	}
	return &AppError{
		Err:        ErrIneligible,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func Unsupported(message string) *AppError {
	return &AppError{
		Err:        ErrUnsupported,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
	}
}

// GetStatusCode extracts HTTP status from error, defaults to 500
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation), errors.Is(err, ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, ErrIneligible):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// GetMessage extracts user message from error
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	return err.Error()
}
