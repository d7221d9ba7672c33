package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrTypeNotMapped             ErrorType = "not_mapped"
	ErrTypeAmbiguousMapping      ErrorType = "ambiguous_mapping"
	ErrTypeColumnCountMismatch   ErrorType = "column_count_mismatch"
	ErrTypeUnsafeAlter           ErrorType = "unsafe_alter"
	ErrTypeSchemaMigrationFailed ErrorType = "schema_migration_failed"
	ErrTypeDatabase              ErrorType = "database"
	ErrTypeConfig                ErrorType = "config"
	ErrTypeValidation            ErrorType = "validation"
	ErrTypeFileSystem            ErrorType = "filesystem"
	ErrTypeInternal              ErrorType = "internal"
)

// Error represents a structured error with type and optional suggestions
type Error struct {
	Type        ErrorType
	Message     string
	Cause       error
	Suggestions []string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithSuggestion adds a suggestion for resolving the error
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// New creates a new structured error
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new structured error with formatted message
func Newf(errType ErrorType, format string, args ...any) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, errType ErrorType, format string, args ...any) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// IsType checks if an error is of a specific type.
// The whole chain is searched, so a typed error wrapped by fmt.Errorf or
// errors.Join is still found.
func IsType(err error, errType ErrorType) bool {
	for _, e := range flatten(err) {
		var structErr *Error
		if errors.As(e, &structErr) && structErr.Type == errType {
			return true
		}
	}

	return false
}

// GetType returns the error type if it's a structured error
func GetType(err error) ErrorType {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type
	}

	return ErrTypeInternal
}

// IsConfiguration reports whether err belongs to the configuration family:
// a missing or ambiguous mapping, a column reference mismatch, or a bad config value.
// These are never retried.
func IsConfiguration(err error) bool {
	switch GetType(err) {
	case ErrTypeNotMapped, ErrTypeAmbiguousMapping, ErrTypeColumnCountMismatch, ErrTypeConfig:
		return true
	default:
		return false
	}
}

// NewConfigError creates a configuration error with suggestions
func NewConfigError(message, field string) *Error {
	err := New(ErrTypeConfig, message)
	if field != "" {
		err.Message = fmt.Sprintf("%s (field: %s)", message, field)
	}

	return err.
		WithSuggestion("Check your configuration file syntax").
		WithSuggestion("Run with --help to see valid configuration options")
}

// flatten expands errors.Join trees so every branch can be inspected.
func flatten(err error) []error {
	if err == nil {
		return nil
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}

		return out
	}

	return []error{err}
}
