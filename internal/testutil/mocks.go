package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/kyleking/schemasync/internal/schema"
)

// MockDatabase is an in-memory stand-in for the synchronizer's database
// collaborator. It answers introspection from configured tables, records
// every executed statement and can inject errors per operation.
type MockDatabase struct {
	mu sync.RWMutex

	tables     map[string][]schema.Column
	rows       map[string]int
	errors     map[string]error
	failAt     int
	failErr    error
	executed   []string
	callCounts map[string]int
}

// MockOption is a functional option for configuring MockDatabase
type MockOption func(*MockDatabase)

// WithLiveTable registers a live table with its columns in physical order
func WithLiveTable(name string, columns ...schema.Column) MockOption {
	return func(m *MockDatabase) {
		m.tables[name] = columns
	}
}

// WithRows sets the number of rows a live table holds
func WithRows(name string, n int) MockOption {
	return func(m *MockDatabase) {
		m.rows[name] = n
	}
}

// WithError makes every call of the named operation fail with err.
// Operation names are the Op* constants.
func WithError(op string, err error) MockOption {
	return func(m *MockDatabase) {
		m.errors[op] = err
	}
}

// FailExecuteAt makes the n-th Execute call (1-based) fail with err
func FailExecuteAt(n int, err error) MockOption {
	return func(m *MockDatabase) {
		m.failAt = n
		m.failErr = err
	}
}

// NewMockDatabase creates a new mock database with the given options
func NewMockDatabase(opts ...MockOption) *MockDatabase {
	mock := &MockDatabase{
		tables:     make(map[string][]schema.Column),
		rows:       make(map[string]int),
		errors:     make(map[string]error),
		callCounts: make(map[string]int),
	}

	for _, opt := range opts {
		opt(mock)
	}

	return mock
}

// Execute records the statement
func (m *MockDatabase) Execute(_ context.Context, stmt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCounts[OpExecute]++

	if err, exists := m.errors[OpExecute]; exists {
		return err
	}

	if m.failAt > 0 && m.callCounts[OpExecute] == m.failAt {
		return m.failErr
	}

	m.executed = append(m.executed, stmt)

	return nil
}

// Introspect returns the configured live columns, or none for an unknown table
func (m *MockDatabase) Introspect(_ context.Context, table string) ([]schema.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCounts[OpIntrospect]++

	if err, exists := m.errors[OpIntrospect]; exists {
		return nil, err
	}

	return slices.Clone(m.tables[table]), nil
}

// TableExists reports whether the table was configured
func (m *MockDatabase) TableExists(_ context.Context, table string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCounts[OpExists]++

	if err, exists := m.errors[OpExists]; exists {
		return false, err
	}

	_, exists := m.tables[table]

	return exists, nil
}

// HasRows reports whether the table was configured with rows
func (m *MockDatabase) HasRows(_ context.Context, table string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCounts[OpHasRows]++

	if err, exists := m.errors[OpHasRows]; exists {
		return false, err
	}

	return m.rows[table] > 0, nil
}

// Executed returns the statements executed so far, in order
func (m *MockDatabase) Executed() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.executed)
}

// GetCallCount returns the number of times an operation was called
func (m *MockDatabase) GetCallCount(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.callCounts[op]
}

// ResetExecuted forgets recorded statements and call counts
func (m *MockDatabase) ResetExecuted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executed = nil
	m.callCounts = make(map[string]int)
}

// SetLiveTable replaces the live columns of a table, as if a migration had
// run against it
func (m *MockDatabase) SetLiveTable(name string, columns ...schema.Column) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tables[name] = columns
}
