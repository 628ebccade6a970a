package logstore

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/roach88/talkdb/internal/chatlog"
)

// pageQuery builds the SQL for the next page. after is the logId of the
// last entry yielded so far, or nil before the first page.
type pageQuery func(after *int64, n int) (string, []any)

// Sequence is a lazy, forward-only, single-use range of chat entries.
//
// Entries are fetched in pages keyed on logId, so no cursor stays open
// between pulls and abandoning the loop releases everything. At most one
// page of decoded entries is held in memory: WithPageSize rows, 64 by
// default. WithPageSize(1) materializes exactly one entry per pull. Rows
// written while a Sequence is being consumed may or may not be seen.
type Sequence struct {
	store    *Store
	ctx      context.Context
	next     pageQuery
	limit    int // 0 = unbounded
	consumed atomic.Bool
}

// Before returns entries with logId < logID in descending order, at most
// limit of them. limit <= 0 means no cap.
func (s *Store) Before(ctx context.Context, logID int64, limit int) *Sequence {
	return s.sequence(ctx, max(limit, 0), func(after *int64, n int) (string, []any) {
		bound := logID
		if after != nil {
			bound = *after
		}
		return s.selectHead + " WHERE logId < ? ORDER BY logId DESC LIMIT ?", []any{bound, n}
	})
}

// Since returns entries with sendAt >= unixSeconds in ascending logId order.
func (s *Store) Since(ctx context.Context, unixSeconds int64) *Sequence {
	return s.sequence(ctx, 0, func(after *int64, n int) (string, []any) {
		if after == nil {
			return s.selectHead + " WHERE sendAt >= ? ORDER BY logId ASC LIMIT ?", []any{unixSeconds, n}
		}
		return s.selectHead + " WHERE sendAt >= ? AND logId > ? ORDER BY logId ASC LIMIT ?", []any{unixSeconds, *after, n}
	})
}

// All returns every entry in ascending logId order.
func (s *Store) All(ctx context.Context) *Sequence {
	return s.sequence(ctx, 0, func(after *int64, n int) (string, []any) {
		if after == nil {
			return s.selectHead + " ORDER BY logId ASC LIMIT ?", []any{n}
		}
		return s.selectHead + " WHERE logId > ? ORDER BY logId ASC LIMIT ?", []any{*after, n}
	})
}

func (s *Store) sequence(ctx context.Context, limit int, next pageQuery) *Sequence {
	return &Sequence{store: s, ctx: ctx, next: next, limit: limit}
}

// Entries returns the iterator. Iterating a second time yields a single
// ErrConsumed.
func (q *Sequence) Entries() iter.Seq2[chatlog.Entry, error] {
	return func(yield func(chatlog.Entry, error) bool) {
		if !q.consumed.CompareAndSwap(false, true) {
			yield(chatlog.Entry{}, ErrConsumed)
			return
		}

		var after *int64
		remaining := q.limit
		for {
			n := q.store.pageSize
			if q.limit > 0 {
				if remaining == 0 {
					return
				}
				n = min(n, remaining)
			}

			query, args := q.next(after, n)
			page, err := q.store.queryPage(q.ctx, query, args...)
			if err != nil {
				yield(chatlog.Entry{}, err)
				return
			}

			for _, e := range page {
				if !yield(e, nil) {
					return
				}
			}
			if len(page) < n {
				return
			}

			last := page[len(page)-1].LogID
			after = &last
			remaining -= len(page)
		}
	}
}

// Collect drains the sequence into a slice. The result is never nil.
func (q *Sequence) Collect() ([]chatlog.Entry, error) {
	out := []chatlog.Entry{}
	for e, err := range q.Entries() {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
