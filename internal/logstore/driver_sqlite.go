//go:build !sqlcipher

package logstore

import (
	"database/sql/driver"
	"errors"

	"github.com/mattn/go-sqlite3"
)

// newDriver returns a plain SQLite driver. CipherPage stores fail to open
// with ErrCipherUnavailable on this build.
func newDriver(pragmas []string) driver.Driver {
	return &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return execPragmas(conn, pragmas)
		},
	}
}

func isNotADatabase(err error) bool {
	var sqlErr sqlite3.Error
	return errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrNotADB
}
