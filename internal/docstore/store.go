package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/talkdb/internal/channel"
	"github.com/roach88/talkdb/internal/ir"
	"github.com/roach88/talkdb/internal/keys"
	"github.com/roach88/talkdb/internal/vault"
)

// Store is an open channel document. I and U are the typed views used
// for the channel info and its members.
type Store[I channel.Info, U channel.UserInfo] struct {
	path   string
	box    *vault.Box
	now    func() time.Time
	logger *slog.Logger
	fresh  bool

	mu  sync.Mutex // serializes mutations; guards doc
	doc *document
}

// NormalStore is a document store for a normal channel.
type NormalStore = Store[channel.NormalInfo, channel.NormalUserInfo]

// OpenStore is a document store for an open channel.
type OpenStore = Store[channel.OpenInfo, channel.OpenUserInfo]

type options struct {
	defaultInfo ir.Object
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures Open.
type Option func(*options)

// WithDefaultInfo seeds the info of a fresh document. Nothing is written
// until the first mutation.
func WithDefaultInfo(info ir.Object) Option {
	return func(o *options) { o.defaultInfo = info }
}

// WithClock sets the wall clock used for lastUpdate.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open loads the document at path, decrypting it with key. A missing or
// empty file yields a fresh document; the parent directory is created if
// needed.
func Open[I channel.Info, U channel.UserInfo](path string, key keys.Key, opts ...Option) (*Store[I, U], error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}

	s := &Store[I, U]{
		path:   path,
		box:    vault.New(key),
		now:    o.now,
		logger: o.logger,
	}
	s.sweepTemp()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.fresh = true
	case err != nil:
		return nil, fmt.Errorf("open document: %w", err)
	case len(bytes.TrimSpace(data)) == 0:
		s.fresh = true
	}

	if s.fresh {
		s.doc = newDocument(o.defaultInfo)
		s.logger.Debug("document created", "path", path)
		return s, nil
	}

	doc, err := s.decode(data)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", path, err)
	}
	s.doc = doc
	s.logger.Debug("document loaded", "path", path, "users", len(doc.Users))
	return s, nil
}

// Path returns the document file path.
func (s *Store[I, U]) Path() string {
	return s.path
}

// Fresh reports whether the document did not exist when opened.
func (s *Store[I, U]) Fresh() bool {
	return s.fresh
}

func (s *Store[I, U]) decode(data []byte) (*document, error) {
	plain, err := s.box.Open(string(bytes.TrimSpace(data)))
	if err != nil {
		return nil, err
	}
	obj, err := ir.UnmarshalBSONDocument(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: bson: %v", vault.ErrDecrypt, err)
	}
	return documentFromObject(obj)
}

// snapshot returns the current document. Callers must not modify it.
func (s *Store[I, U]) snapshot() *document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// mutate applies fn to a copy of the document, persists the copy and
// swaps it in. On any error memory and disk keep the previous document.
func (s *Store[I, U]) mutate(ctx context.Context, op string, fn func(doc *document)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.clone()
	fn(next)

	if err := s.write(next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.doc = next
	s.fresh = false
	return nil
}

// write seals doc and atomically replaces the file.
func (s *Store[I, U]) write(doc *document) error {
	plain, err := ir.MarshalBSONDocument(doc.toObject())
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	sealed := s.box.Seal(plain)

	tmp := fmt.Sprintf("%s.%s.tmp", s.path, uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := f.WriteString(sealed); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	// On POSIX this replaces the target in one step: readers see the
	// old document or the new one.
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace document: %w", err)
	}

	s.logger.Debug("document written", "path", s.path, "bytes", len(sealed))
	return nil
}

// sweepTemp removes temp files left by writes interrupted before rename.
func (s *Store[I, U]) sweepTemp() {
	matches, err := filepath.Glob(s.path + ".*.tmp")
	if err != nil {
		return
	}
	for _, m := range matches {
		if err := os.Remove(m); err == nil {
			s.logger.Debug("removed stale temp file", "path", m)
		}
	}
}
