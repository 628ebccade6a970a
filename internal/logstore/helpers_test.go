package logstore

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/talkdb/internal/chatlog"
	"github.com/roach88/talkdb/internal/ir"
	"github.com/roach88/talkdb/internal/keys"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestStore opens a store in a temp dir, closed on cleanup.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	s, err := Open(path, keys.Derive("chat$1"), opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func text(s string) *string { return &s }

// entry builds a test entry; sendAt defaults to logID*10.
func entry(logID int64) chatlog.Entry {
	return chatlog.Entry{
		LogID:     logID,
		PrevLogID: logID - 1,
		SenderID:  100,
		Type:      1,
		Text:      text("msg"),
		SendAt:    logID * 10,
		MessageID: logID + 1000,
	}
}

func entries(ids ...int64) []chatlog.Entry {
	out := make([]chatlog.Entry, len(ids))
	for i, id := range ids {
		out[i] = entry(id)
	}
	return out
}

func logIDs(es []chatlog.Entry) []int64 {
	ids := make([]int64, len(es))
	for i, e := range es {
		ids[i] = e.LogID
	}
	return ids
}

func attachment() ir.Object {
	return ir.NewObject(
		ir.O("path", ir.String("/talkm/x.png")),
		ir.O("srcLogId", ir.Int(3158204847268585473)),
	)
}
