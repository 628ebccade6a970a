package logstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/talkdb/internal/chatlog"
	"github.com/roach88/talkdb/internal/schema"
)

// Get returns the entry with logID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, logID int64) (chatlog.Entry, error) {
	return s.queryOne(ctx, s.selectHead+" WHERE logId = ?", logID)
}

// Last returns the entry with the highest logId, or ErrNotFound when the
// log is empty.
func (s *Store) Last(ctx context.Context) (chatlog.Entry, error) {
	return s.queryOne(ctx, s.selectHead+" WHERE logId = (SELECT MAX(logId) FROM chats)")
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chats").Scan(&n); err != nil {
		return 0, fmt.Errorf("count chats: %w", err)
	}
	return n, nil
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (chatlog.Entry, error) {
	page, err := s.queryPage(ctx, query, args...)
	if err != nil {
		return chatlog.Entry{}, err
	}
	if len(page) == 0 {
		return chatlog.Entry{}, ErrNotFound
	}
	return page[0], nil
}

// queryPage runs query and decodes every row. Rows are closed before it
// returns.
func (s *Store) queryPage(ctx context.Context, query string, args ...any) ([]chatlog.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}

	var entries []chatlog.Entry
	for rows.Next() {
		e, err := s.scanEntry(rows, cols)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return entries, nil
}

func (s *Store) scanEntry(rows *sql.Rows, cols []string) (chatlog.Entry, error) {
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return chatlog.Entry{}, fmt.Errorf("scan chat row: %w", err)
	}

	raw := make(map[string]any, len(cols))
	for i, c := range cols {
		raw[c] = vals[i]
	}

	m, err := schema.RawToModel(s.schema, raw)
	if err != nil {
		return chatlog.Entry{}, fmt.Errorf("decode chat row: %w", err)
	}
	e, err := chatlog.FromModel(m)
	if err != nil {
		return chatlog.Entry{}, fmt.Errorf("decode chat row: %w", err)
	}
	return e, nil
}
