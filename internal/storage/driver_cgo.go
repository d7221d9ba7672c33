//go:build cgo_sqlite

// CGO SQLite driver using mattn/go-sqlite3.
//
// Build with: go build -tags cgo_sqlite
// Requires: CGO_ENABLED=1
package storage

import (
	"net/url"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // CGO SQLite driver
)

const (
	sqliteDriverName = "sqlite3"
	sqliteDriverType = "cgo"
)

// sqliteDSN appends mattn connection parameters to the path
func sqliteDSN(path string, busyTimeout time.Duration) string {
	params := url.Values{}
	params.Set("_busy_timeout", strconv.FormatInt(busyTimeout.Milliseconds(), 10))
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")

	return path + "?" + params.Encode()
}
