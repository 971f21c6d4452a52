package db

import (
	"database/sql"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// DriverName is the sqlite3 driver with the application's SQL functions
// registered on every connection. Open uses it; tests that need the functions
// can sql.Open it directly.
const DriverName = "sqlite3_cragcast"

func init() {
	sql.Register(DriverName, newDriver())
}

func newDriver() *sqlite3.SQLiteDriver {
	return &sqlite3.SQLiteDriver{ConnectHook: registerFunctions}
}

// registerFunctions adds casefold(text), a Unicode-aware lower(). SQLite's
// built-in lower() and LIKE only fold ASCII letters.
func registerFunctions(conn *sqlite3.SQLiteConn) error {
	return conn.RegisterFunc("casefold", Casefold, true)
}

// Casefold is the Go side of the casefold SQL function. Search terms must be
// folded with it before they are compared with casefold(column).
func Casefold(s string) string {
	return strings.ToLower(s)
}
