package errors

import (
	"fmt"
	"net/http"
)

// ErrorType classifies application errors along the retry boundary:
// schedule/config and state-guard errors must be corrected by the caller,
// concurrency errors may be retried a bounded number of times, and
// invariant errors are fatal internal failures.
type ErrorType string

const (
	ErrorTypeSchedule       ErrorType = "schedule"
	ErrorTypeConflict       ErrorType = "conflict"
	ErrorTypeStateGuard     ErrorType = "state_guard"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeConcurrency    ErrorType = "concurrency"
	ErrorTypeInvariant      ErrorType = "invariant"
	ErrorTypeInternal       ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Retryable reports whether the caller may safely retry the operation.
// Only commit-time concurrency conflicts qualify; guard failures never do.
func (e *AppError) Retryable() bool {
	return e.Type == ErrorTypeConcurrency
}

// NewScheduleError creates an invalid-schedule rejection
func NewScheduleError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeSchedule,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewConflictError creates a monthly-conflict rejection naming the
// conflicting draw in its details.
func NewConflictError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
		Details:    details,
	}
}

// NewStateGuardError creates a rejection for an operation against a draw in
// the wrong state, carrying the current values the caller needs to
// self-correct.
func NewStateGuardError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeStateGuard,
		Message:    message,
		StatusCode: http.StatusConflict,
		Details:    details,
	}
}

// NewValidationError creates a semantic rejection of a well-formed request,
// such as an entry claim that names a ticket outside the claimed range.
// Malformed requests get a plain 400 before reaching the domain.
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewConcurrencyError creates a retryable commit-conflict error
func NewConcurrencyError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeConcurrency,
		Message:    message,
		StatusCode: http.StatusConflict,
		Internal:   internal,
	}
}

// NewInvariantError creates a fatal invariant-violation error
func NewInvariantError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInvariant,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// ErrorResponse represents the JSON error response
type ErrorResponse struct {
	Error struct {
		Type      ErrorType              `json:"type"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details,omitempty"`
		RequestID string                 `json:"request_id,omitempty"`
		Timestamp string                 `json:"timestamp"`
	} `json:"error"`
}
