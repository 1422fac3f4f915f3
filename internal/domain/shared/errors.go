package shared

import "errors"

// Error codes shared across bounded contexts
const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodePersistenceFailed = "PERSISTENCE_FAILED"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeConflict          = "CONCURRENCY_CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code,
// so errors.Is(err, ErrNotFound) matches any NOT_FOUND error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error carrying cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidationFailed    = NewDomainError(CodeValidationFailed, "Validation failed")
	ErrPersistenceFailed   = NewDomainError(CodePersistenceFailed, "Persistence failed")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConflict, "Resource was modified by another process")
)

// NewValidationError creates a VALIDATION_FAILED error with a specific message
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidationFailed, message)
}

// NewNotFoundError creates a NOT_FOUND error naming the missing resource
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, resource+" not found")
}

// NewPersistenceError wraps a repository failure
func NewPersistenceError(cause error) *DomainError {
	return WrapDomainError(CodePersistenceFailed, "Failed to persist changes", cause)
}

// CodeOf returns the domain error code carried by err, or empty string
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
