//go:build !cgo_sqlite

package storage

import (
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const (
	sqliteDriverName = "sqlite"
	sqliteDriverType = "purego"
)

// sqliteDSN appends modernc pragmas to the path
func sqliteDSN(path string, busyTimeout time.Duration) string {
	return fmt.Sprintf(
		"%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		path, busyTimeout.Milliseconds(),
	)
}
