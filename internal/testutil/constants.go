// Package testutil provides common constants and utilities for tests
package testutil

import "time"

const (
	// TestTimeout is the default timeout for test operations
	TestTimeout = 30 * time.Second

	// ShortTestTimeout is a shorter timeout for quick operations
	ShortTestTimeout = 5 * time.Second

	// TestRowCount is a common number of rows seeded into a table
	TestRowCount = 25

	// TestTableCount is a common number of tables in a generated registry
	TestTableCount = 10
)

// Common test names
const (
	// TestTableName is a default physical table name
	TestTableName = "users"

	// TestBackupName is the first temporary table a rebuild of TestTableName uses
	TestBackupName = TestTableName + "_backup"

	// TestLabel is a default subquery label
	TestLabel = "recent_users"
)

// Execute-error keys understood by MockDatabase
const (
	OpExecute    = "Execute"
	OpIntrospect = "Introspect"
	OpExists     = "TableExists"
	OpHasRows    = "HasRows"
)
