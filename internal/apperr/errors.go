// Package apperr provides the structured errors surfaced to callers of the
// planning core and the mapping of those errors to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an AppError.
type ErrorCode string

const (
	CodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	CodeNotFound             ErrorCode = "NOT_FOUND"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// AppError is an error with a code that callers can act on.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status for the error code.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeValidationFailed:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeExternalServiceError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithCause attaches the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewValidationError reports a missing or malformed required field.
func NewValidationError(format string, args ...any) *AppError {
	return &AppError{Code: CodeValidationFailed, Message: "Validation failed", Details: fmt.Sprintf(format, args...)}
}

// NewNotFoundError reports a missing resource, e.g. "plan".
func NewNotFoundError(resource, details string) *AppError {
	return &AppError{Code: CodeNotFound, Message: resource + " not found", Details: details}
}

// NewCollaboratorError wraps a failure of an external service.
func NewCollaboratorError(collaborator string, cause error) *AppError {
	return &AppError{Code: CodeExternalServiceError, Message: collaborator + " unavailable", Cause: cause}
}

// NewInternalError wraps an unexpected fault.
func NewInternalError(cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: "Internal error", Cause: cause}
}

// Code extracts the code of the first AppError in the chain, or CodeInternal.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func IsValidation(err error) bool { return err != nil && Code(err) == CodeValidationFailed }

func IsNotFound(err error) bool { return err != nil && Code(err) == CodeNotFound }

// StatusCode maps any error to an HTTP status.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}
	return http.StatusInternalServerError
}

// PublicMessage returns text that is safe to show to a caller.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != CodeInternal {
		if appErr.Details != "" {
			return appErr.Message + ": " + appErr.Details
		}
		return appErr.Message
	}
	return "internal error"
}
