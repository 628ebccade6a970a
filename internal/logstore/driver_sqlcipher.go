//go:build sqlcipher

package logstore

import (
	"database/sql/driver"
	"errors"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

// newDriver returns a SQLCipher driver, so CipherPage keys the whole
// database file.
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
