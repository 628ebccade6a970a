// Package loader opens the stores of one account by logical name.
//
// A Loader owns every store it opens and hands out the same instance when
// a logical name is requested again, so no name is ever open twice within
// one process. Close releases all of them.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/roach88/talkdb/internal/channel"
	"github.com/roach88/talkdb/internal/config"
	"github.com/roach88/talkdb/internal/docstore"
	"github.com/roach88/talkdb/internal/ir"
	"github.com/roach88/talkdb/internal/keys"
	"github.com/roach88/talkdb/internal/logstore"
	"github.com/roach88/talkdb/internal/names"
	"github.com/roach88/talkdb/internal/pathres"
)

// ErrClosed is returned by every Load call after Close.
var ErrClosed = errors.New("loader closed")

// chatDir is the per-account directory holding chat log databases.
const chatDir = "chatdata"

// Result pairs an opened store with whether the caller should fetch a
// fresh copy from the server.
type Result[T any] struct {
	ShouldResync bool
	Store        T
}

// Loader opens and caches stores under one account root.
type Loader struct {
	cfg      config.Config
	userID   int64
	resolver pathres.Resolver
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	closed bool
	logs   map[string]*logstore.Store
	normal map[string]*docstore.NormalStore
	open   map[string]*docstore.OpenStore
}

// Option configures New.
type Option func(*Loader)

// WithLogger sets the logger passed to every store.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithClock sets the wall clock passed to document stores.
func WithClock(now func() time.Time) Option {
	return func(ld *Loader) { ld.now = now }
}

// New returns a Loader for userID rooted at cfg.DataDir.
func New(cfg config.Config, userID int64, opts ...Option) (*Loader, error) {
	resolver, err := cfg.PathResolver()
	if err != nil {
		return nil, fmt.Errorf("new loader: %w", err)
	}

	ld := &Loader{
		cfg:      cfg,
		userID:   userID,
		resolver: resolver,
		logger:   slog.Default(),
		now:      time.Now,
		logs:     map[string]*logstore.Store{},
		normal:   map[string]*docstore.NormalStore{},
		open:     map[string]*docstore.OpenStore{},
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld, nil
}

// UserID returns the account the loader serves.
func (ld *Loader) UserID() int64 {
	return ld.userID
}

// DocumentPath returns the file path of the document named name.
func (ld *Loader) DocumentPath(name string) string {
	virtual := path.Join(names.User(ld.userID), name)
	return filepath.Join(ld.cfg.DataDir, ld.resolver.Resolve(virtual))
}

// ChatPath returns the database path of a channel's chat log.
func (ld *Loader) ChatPath(channelID int64) string {
	dir := ld.resolver.Resolve(path.Join(names.User(ld.userID), chatDir))
	return filepath.Join(ld.cfg.DataDir, dir, pathres.SHA256Hex(names.Chat(channelID)))
}

// LoadChatList opens the chat log of channelID. ShouldResync is true
// when the log holds no entries, which includes a newly created file.
func (ld *Loader) LoadChatList(ctx context.Context, channelID int64) (Result[*logstore.Store], error) {
	name := names.Chat(channelID)

	ld.mu.Lock()
	defer ld.mu.Unlock()
	if ld.closed {
		return Result[*logstore.Store]{}, ErrClosed
	}

	s, ok := ld.logs[name]
	if !ok {
		p := ld.ChatPath(channelID)
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return Result[*logstore.Store]{}, fmt.Errorf("load %s: %w", name, err)
		}
		var err error
		s, err = logstore.Open(p, keys.Derive(name),
			logstore.WithCipherMode(logstore.CipherMode(ld.cfg.Cipher)),
			logstore.WithBusyTimeout(ld.cfg.BusyTimeout()),
			logstore.WithSynchronous(ld.cfg.Synchronous),
			logstore.WithPageSize(ld.cfg.PageSize),
			logstore.WithLogger(ld.logger),
		)
		if err != nil {
			return Result[*logstore.Store]{}, fmt.Errorf("load %s: %w", name, err)
		}
		ld.logs[name] = s
	}

	n, err := s.Count(ctx)
	if err != nil {
		return Result[*logstore.Store]{}, fmt.Errorf("load %s: %w", name, err)
	}
	return Result[*logstore.Store]{ShouldResync: n == 0, Store: s}, nil
}

// LoadNormalChannel opens the document of a normal channel.
// lastKnownUpdate is the server's last update time, 0 when unknown.
func (ld *Loader) LoadNormalChannel(ctx context.Context, channelID, lastKnownUpdate int64) (Result[*docstore.NormalStore], error) {
	name := names.Channel(channelID)
	def := ir.NewObject(ir.O("channelId", ir.Int(channelID)))

	s, err := loadDocument(ctx, ld, ld.normal, name, def)
	if err != nil {
		return Result[*docstore.NormalStore]{}, err
	}
	return Result[*docstore.NormalStore]{
		ShouldResync: shouldResync(s.Fresh(), s.LastUpdate(), lastKnownUpdate),
		Store:        s,
	}, nil
}

// LoadOpenChannel opens the document of an open channel joined through
// linkID.
func (ld *Loader) LoadOpenChannel(ctx context.Context, channelID, linkID, lastKnownUpdate int64) (Result[*docstore.OpenStore], error) {
	name := names.OpenChannel(channelID, linkID)
	def := ir.NewObject(
		ir.O("channelId", ir.Int(channelID)),
		ir.O("linkId", ir.Int(linkID)),
	)

	s, err := loadDocument(ctx, ld, ld.open, name, def)
	if err != nil {
		return Result[*docstore.OpenStore]{}, err
	}
	return Result[*docstore.OpenStore]{
		ShouldResync: shouldResync(s.Fresh(), s.LastUpdate(), lastKnownUpdate),
		Store:        s,
	}, nil
}

func loadDocument[I channel.Info, U channel.UserInfo](
	ctx context.Context,
	ld *Loader,
	cache map[string]*docstore.Store[I, U],
	name string,
	defaultInfo ir.Object,
) (*docstore.Store[I, U], error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	ld.mu.Lock()
	defer ld.mu.Unlock()
	if ld.closed {
		return nil, ErrClosed
	}

	if s, ok := cache[name]; ok {
		return s, nil
	}

	s, err := docstore.Open[I, U](ld.DocumentPath(name), keys.Derive(name),
		docstore.WithDefaultInfo(defaultInfo),
		docstore.WithClock(ld.now),
		docstore.WithLogger(ld.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	cache[name] = s
	return s, nil
}

// shouldResync reports whether the local document is missing or not
// newer than what the server last reported.
func shouldResync(fresh bool, stored, lastKnown int64) bool {
	return fresh || lastKnown == 0 || stored <= lastKnown
}

// Close closes every log store and marks the loader closed. Document
// stores hold no open handles.
func (ld *Loader) Close() error {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	if ld.closed {
		return nil
	}
	ld.closed = true

	var errs []error
	for name, s := range ld.logs {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	ld.logs = nil
	ld.normal = nil
	ld.open = nil
	return errors.Join(errs...)
}
