package docstore

import (
	"cmp"
	"context"
	"slices"
	"strconv"

	"github.com/roach88/talkdb/internal/channel"
	"github.com/roach88/talkdb/internal/chatlog"
)

// UpdateWatermark records logID as the last message readerID has read.
func (s *Store[I, U]) UpdateWatermark(ctx context.Context, readerID, logID int64) error {
	key := userKey(readerID)
	return s.mutate(ctx, "update watermark "+key, func(doc *document) {
		doc.Watermarks[key] = strconv.FormatInt(logID, 10)
	})
}

// Watermark returns the last read logId of readerID.
func (s *Store[I, U]) Watermark(readerID int64) (int64, bool) {
	v, ok := s.snapshot().Watermarks[userKey(readerID)]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ClearWatermark removes every watermark. Members are kept.
func (s *Store[I, U]) ClearWatermark(ctx context.Context) error {
	return s.mutate(ctx, "clear watermark", func(doc *document) {
		doc.Watermarks = map[string]string{}
	})
}

// ReadCount returns how many readers have a watermark at or past e.
func (s *Store[I, U]) ReadCount(e chatlog.Entry) int {
	return len(s.readers(s.snapshot(), e.LogID))
}

// Readers returns the member info of every reader counted by ReadCount,
// ordered by reader id. Readers without stored member info are skipped.
func (s *Store[I, U]) Readers(e chatlog.Entry) ([]U, error) {
	doc := s.snapshot()
	ids := s.readers(doc, e.LogID)

	out := make([]U, 0, len(ids))
	for _, r := range ids {
		obj, ok := doc.Users[r.key]
		if !ok {
			continue
		}
		u, err := channel.Decode[U](obj)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

type reader struct {
	key string
	id  int64
}

// readers returns the watermark owners at or past logID, sorted by id.
func (s *Store[I, U]) readers(doc *document, logID int64) []reader {
	var out []reader
	for key, v := range doc.Watermarks {
		w, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.logger.Warn("skipping invalid watermark", "path", s.path, "reader", key, "value", v)
			continue
		}
		if w < logID {
			continue
		}
		id, _ := strconv.ParseInt(key, 10, 64)
		out = append(out, reader{key: key, id: id})
	}
	slices.SortFunc(out, func(a, b reader) int {
		return cmp.Or(cmp.Compare(a.id, b.id), cmp.Compare(a.key, b.key))
	})
	return out
}
