package nextbus

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest indicates the request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request")

	// ErrServerError indicates a server-side error
	ErrServerError = errors.New("server error")

	// ErrTimeout indicates the request timed out
	ErrTimeout = errors.New("request timed out")
)

// APIError represents an error returned by the NextBus feed, either as an
// HTTP status or as an Error object in a 200 response
type APIError struct {
	StatusCode int
	Status     string
	Command    string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Command, e.Message)
	}
	return fmt.Sprintf("API error %d: %s (command: %s)", e.StatusCode, e.Status, e.Command)
}

// Is implements errors.Is for APIError
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == 404
	case ErrServerError:
		return e.StatusCode >= 500
	case ErrInvalidRequest:
		return e.StatusCode == 400
	}
	return false
}

// NewAPIError creates a new API error
func NewAPIError(statusCode int, status, command string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Status:     status,
		Command:    command,
	}
}

// NewAPIErrorWithMessage creates a new API error with a custom message
func NewAPIErrorWithMessage(statusCode int, command, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Command:    command,
		Message:    message,
	}
}

// ValidationError represents a validation error for request parameters
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// Is lets callers match any validation error with ErrInvalidRequest
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// ErrMissingField reports a required request parameter that is empty
func ErrMissingField(field string) error {
	return NewValidationError(field, "field is required")
}
