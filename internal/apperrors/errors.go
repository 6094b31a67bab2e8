// Package apperrors provides typed error handling for the Depotrack API.
// It uses struct-based errors with separate user-safe and internal messages.
package apperrors

import "fmt"

// Code categorizes errors for consistent handling across the application.
type Code int

// Error codes for categorizing application errors.
const (
	// CodeUnknown indicates an unspecified error type
	CodeUnknown Code = iota
	// CodeNotFound indicates a requested resource does not exist
	CodeNotFound
	// CodeDuplicate indicates a unique constraint violation
	CodeDuplicate
	// CodeInvalidInput indicates malformed or invalid input
	CodeInvalidInput
	// CodeValidation indicates a status transition failed vocabulary rules
	CodeValidation
	// CodeConflict indicates a concurrent writer won the race on the same record
	CodeConflict
	// CodeDependencyExists indicates the resource has dependent records
	CodeDependencyExists
	// CodeDatabase indicates a database operation failure
	CodeDatabase
	// CodeUnauthorized indicates authentication is required
	CodeUnauthorized
	// CodeForbidden indicates insufficient permissions
	CodeForbidden
)

// Error represents a domain error with separate user-safe and internal messages.
// The Message field is always safe to expose to clients.
// The Internal field contains debugging details and should only be logged.
type Error struct {
	Code     Code              // Error category for handler mapping
	Message  string            // User-safe message (always exposable)
	Internal string            // Internal details (for logging only)
	Fields   map[string]string // Per-field validation messages (CodeValidation)
	Err      error             // Wrapped underlying error
}

// Error implements the error interface.
// Returns the user-safe message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithInternal adds internal debugging details to the error.
func (e *Error) WithInternal(format string, args ...any) *Error {
	e.Internal = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// Is reports whether target matches this error's code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// String returns the string representation of the error code.
func (c Code) String() string {
	switch c {
	case CodeUnknown:
		return "unknown"
	case CodeNotFound:
		return "not_found"
	case CodeDuplicate:
		return "duplicate"
	case CodeInvalidInput:
		return "invalid_input"
	case CodeValidation:
		return "validation"
	case CodeConflict:
		return "conflict"
	case CodeDependencyExists:
		return "dependency_exists"
	case CodeDatabase:
		return "database"
	case CodeUnauthorized:
		return "unauthorized"
	case CodeForbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("unknown_code_%d", c)
	}
}

// NotFound creates a new not found error with the given message.
func NotFound(message string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: message,
	}
}

// Duplicate creates a new duplicate error with the given message.
func Duplicate(message string) *Error {
	return &Error{
		Code:    CodeDuplicate,
		Message: message,
	}
}

// Database creates a new database error with the given message.
func Database(message string) *Error {
	return &Error{
		Code:    CodeDatabase,
		Message: message,
	}
}

// InvalidInput creates a new invalid input error with the given message.
func InvalidInput(message string) *Error {
	return &Error{
		Code:    CodeInvalidInput,
		Message: message,
	}
}

// Validation creates a validation error carrying per-field messages.
func Validation(message string, fields map[string]string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: message,
		Fields:  fields,
	}
}

// Conflict creates a concurrent-write conflict error. Safe to retry.
func Conflict(message string) *Error {
	return &Error{
		Code:    CodeConflict,
		Message: message,
	}
}

// DependencyExists creates an error for deletions blocked by dependent records.
func DependencyExists(message string) *Error {
	return &Error{
		Code:    CodeDependencyExists,
		Message: message,
	}
}

// Forbidden creates an insufficient-permissions error.
func Forbidden(message string) *Error {
	return &Error{
		Code:    CodeForbidden,
		Message: message,
	}
}
