// Package logstore persists one channel's chat log in SQLite.
//
// Each Store owns a single database file holding one table, chats, whose
// columns come from chatlog.Schema. Writes are upserts keyed by logId so
// re-delivered messages never duplicate. Range reads return a Sequence
// that pulls rows from SQLite page by page as the caller iterates.
//
// Encryption is applied in one of two modes:
//   - CipherColumn seals the text, attachment and supplement columns with
//     the store key; ids and timestamps stay queryable
//   - CipherPage keys the whole file through SQLCipher's PRAGMA key. It
//     needs the sqlcipher build tag, which links go-sqlcipher in place of
//     go-sqlite3; the default build returns ErrCipherUnavailable
//
// Opening a file that is not a database, or a page-encrypted file with the
// wrong key, fails with vault.ErrDecrypt.
package logstore
