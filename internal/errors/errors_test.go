package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ErrTypeNotMapped, "no table mapped for key")

	assert.Equal(t, ErrTypeNotMapped, err.Type)
	assert.Equal(t, "no table mapped for key", err.Message)
	assert.NoError(t, err.Cause)
}

func TestNewf(t *testing.T) {
	err := Newf(ErrTypeAmbiguousMapping, "%d tables match %q", 2, "users")

	assert.Equal(t, ErrTypeAmbiguousMapping, err.Type)
	assert.Equal(t, `2 tables match "users"`, err.Message)
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("disk I/O error")
	wrappedErr := Wrap(originalErr, ErrTypeDatabase, "introspect failed")

	assert.Equal(t, ErrTypeDatabase, wrappedErr.Type)
	assert.Equal(t, "introspect failed", wrappedErr.Message)
	assert.Equal(t, originalErr, wrappedErr.Cause)
	assert.Equal(t, originalErr, wrappedErr.Unwrap())
}

func TestWrapf(t *testing.T) {
	originalErr := errors.New("table users_backup already exists")
	wrappedErr := Wrapf(originalErr, ErrTypeSchemaMigrationFailed, "rebuild %s", "users")

	assert.Equal(t, ErrTypeSchemaMigrationFailed, wrappedErr.Type)
	assert.Equal(t, "rebuild users", wrappedErr.Message)
	assert.ErrorIs(t, wrappedErr, originalErr)
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "error without cause",
			err:      &Error{Type: ErrTypeUnsafeAlter, Message: "column email is NOT NULL without default"},
			expected: "unsafe_alter: column email is NOT NULL without default",
		},
		{
			name: "error with cause",
			err: &Error{
				Type:    ErrTypeDatabase,
				Message: "query failed",
				Cause:   errors.New("database is locked"),
			},
			expected: "database: query failed (caused by: database is locked)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestWithSuggestion(t *testing.T) {
	err := New(ErrTypeUnsafeAlter, "cannot add column")
	err = err.WithSuggestion("Declare a default value")
	err = err.WithSuggestion("Make the column nullable")

	assert.Len(t, err.Suggestions, 2)
	assert.Contains(t, err.Suggestions, "Declare a default value")
}

func TestIsType(t *testing.T) {
	structErr := New(ErrTypeColumnCountMismatch, "explicit ref out of range")
	regularErr := errors.New("regular error")

	assert.True(t, IsType(structErr, ErrTypeColumnCountMismatch))
	assert.False(t, IsType(structErr, ErrTypeDatabase))
	assert.False(t, IsType(regularErr, ErrTypeColumnCountMismatch))
	assert.False(t, IsType(nil, ErrTypeInternal))
}

func TestIsTypeThroughWrappers(t *testing.T) {
	unsafe := New(ErrTypeUnsafeAlter, "users")
	failed := Wrap(errors.New("boom"), ErrTypeSchemaMigrationFailed, "orders")

	wrapped := fmt.Errorf("sync: %w", unsafe)
	assert.True(t, IsType(wrapped, ErrTypeUnsafeAlter))

	joined := errors.Join(failed, unsafe)
	assert.True(t, IsType(joined, ErrTypeUnsafeAlter))
	assert.True(t, IsType(joined, ErrTypeSchemaMigrationFailed))
	assert.False(t, IsType(joined, ErrTypeNotMapped))
}

func TestGetType(t *testing.T) {
	assert.Equal(t, ErrTypeNotMapped, GetType(New(ErrTypeNotMapped, "x")))
	assert.Equal(t, ErrTypeInternal, GetType(errors.New("regular error")))
}

func TestIsConfiguration(t *testing.T) {
	tests := []struct {
		errType  ErrorType
		expected bool
	}{
		{ErrTypeNotMapped, true},
		{ErrTypeAmbiguousMapping, true},
		{ErrTypeColumnCountMismatch, true},
		{ErrTypeConfig, true},
		{ErrTypeUnsafeAlter, false},
		{ErrTypeSchemaMigrationFailed, false},
		{ErrTypeDatabase, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.expected, IsConfiguration(New(tt.errType, "x")))
		})
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("invalid value", "database.driver")

	assert.Equal(t, ErrTypeConfig, err.Type)
	assert.Contains(t, err.Message, "invalid value")
	assert.Contains(t, err.Message, "database.driver")
	assert.Contains(t, err.Suggestions, "Check your configuration file syntax")
}

func TestNewConfigErrorEmptyField(t *testing.T) {
	err := NewConfigError("failed to load", "")

	assert.Equal(t, ErrTypeConfig, err.Type)
	assert.Equal(t, "failed to load", err.Message)
}
