package logstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/talkdb/internal/chatlog"
	"github.com/roach88/talkdb/internal/keys"
	"github.com/roach88/talkdb/internal/schema"
	"github.com/roach88/talkdb/internal/vault"
)

var (
	// ErrNotFound is returned by Get and Last when no row matches.
	ErrNotFound = errors.New("log entry not found")

	// ErrConsumed is yielded when a Sequence is iterated a second time.
	ErrConsumed = errors.New("sequence already consumed")

	// ErrCipherUnavailable is returned by Open in CipherPage mode when the
	// linked SQLite library has no SQLCipher support. Build with
	// -tags sqlcipher to link it.
	ErrCipherUnavailable = errors.New("sqlcipher not available")
)

// Schema version tracking:
// 0 - chats table only
// 1 - index on chats.sendAt for Since scans
const currentSchemaVersion = 1

// CipherMode selects how a log store encrypts its data.
type CipherMode string

const (
	CipherColumn CipherMode = "column"
	CipherPage   CipherMode = "page"
)

// Store is an open chat log for one channel.
type Store struct {
	db       *sql.DB
	schema   *schema.Schema
	path     string
	pageSize int
	logger   *slog.Logger

	cols       string
	insertSQL  string
	selectHead string
}

type options struct {
	cipher      CipherMode
	busyTimeout time.Duration
	synchronous string
	pageSize    int
	logger      *slog.Logger
}

// Option configures Open.
type Option func(*options)

// WithCipherMode selects column (default) or page encryption.
func WithCipherMode(mode CipherMode) Option {
	return func(o *options) { o.cipher = mode }
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// WithSynchronous sets PRAGMA synchronous (OFF, NORMAL, FULL or EXTRA).
func WithSynchronous(mode string) Option {
	return func(o *options) { o.synchronous = strings.ToUpper(mode) }
}

// WithPageSize sets how many rows a Sequence fetches per query.
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func defaultOptions() options {
	return options{
		cipher:      CipherColumn,
		busyTimeout: 5 * time.Second,
		synchronous: "NORMAL",
		pageSize:    64,
	}
}

// Open creates or opens the chat log at path, encrypted with key.
// Applies pragmas and migrations on every open; safe to call repeatedly
// on the same file.
//
// The database is configured with:
//   - WAL mode for durable appends
//   - NORMAL synchronous mode unless overridden
//   - a busy timeout for lock contention
//   - a single connection, since SQLite allows one writer at a time
func Open(path string, key keys.Key, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.pageSize <= 0 {
		return nil, fmt.Errorf("open log store: page size must be positive, got %d", o.pageSize)
	}
	switch o.synchronous {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return nil, fmt.Errorf("open log store: invalid synchronous mode %q", o.synchronous)
	}

	var box *vault.Box
	pragmas := make([]string, 0, 4)
	switch o.cipher {
	case CipherColumn:
		box = vault.New(key)
	case CipherPage:
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA key = '%s'", key.Hex()))
	default:
		return nil, fmt.Errorf("open log store: unknown cipher mode %q", o.cipher)
	}
	pragmas = append(pragmas,
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = "+o.synchronous,
		fmt.Sprintf("PRAGMA busy_timeout = %d", o.busyTimeout.Milliseconds()),
	)

	db := sql.OpenDB(newConnector(path, pragmas))

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		if isNotADatabase(err) {
			return nil, fmt.Errorf("open log store %s: %w", path, vault.ErrDecrypt)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if o.cipher == CipherPage {
		if err := verifyCipher(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := newStore(db, chatlog.Schema(box))
	s.path = path
	s.pageSize = o.pageSize
	s.logger = o.logger

	if err := s.applySchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s.logger.Debug("log store opened", "path", path, "cipher", string(o.cipher))
	return s, nil
}

func newStore(db *sql.DB, sch *schema.Schema) *Store {
	cols := schema.Columns(sch)
	return &Store{
		db:         db,
		schema:     sch,
		cols:       cols,
		insertSQL:  "INSERT OR REPLACE INTO chats (" + cols + ") VALUES (" + schema.Placeholders(sch) + ")",
		selectHead: "SELECT " + cols + " FROM chats",
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// connector opens sqlite3 connections and runs pragmas on each one before
// database/sql sees it. PRAGMA key has to be the first statement on a
// SQLCipher connection, so it cannot be issued through the pool.
type connector struct {
	dsn    string
	driver driver.Driver
}

func newConnector(path string, pragmas []string) *connector {
	return &connector{dsn: path, driver: newDriver(pragmas)}
}

func (c *connector) Connect(context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c *connector) Driver() driver.Driver {
	return c.driver
}

// execer is the raw connection type handed to the driver's ConnectHook.
type execer interface {
	Exec(query string, args []driver.Value) (driver.Result, error)
}

func execPragmas(conn execer, pragmas []string) error {
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma, nil); err != nil {
			return fmt.Errorf("failed to execute %q: %w", redact(pragma), err)
		}
	}
	return nil
}

func redact(pragma string) string {
	if strings.HasPrefix(pragma, "PRAGMA key") {
		return "PRAGMA key = <redacted>"
	}
	return pragma
}

func verifyCipher(db *sql.DB) error {
	var version string
	err := db.QueryRow("PRAGMA cipher_version").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && version == "") {
		return ErrCipherUnavailable
	}
	if err != nil {
		return fmt.Errorf("query cipher_version: %w", err)
	}
	return nil
}

// applySchema creates the chats table if absent and runs migrations.
func (s *Store) applySchema() error {
	if _, err := s.db.Exec("CREATE TABLE IF NOT EXISTS chats (" + schema.Table(s.schema) + ")"); err != nil {
		return fmt.Errorf("failed to create chats table: %w", err)
	}
	return s.runMigrations()
}

// runMigrations applies incremental migrations based on user_version.
func (s *Store) runMigrations() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_chats_send_at ON chats(sendAt)`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}

	if version != currentSchemaVersion {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if !strings.EqualFold(value, expected) {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
