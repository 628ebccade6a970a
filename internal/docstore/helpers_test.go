package docstore

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/talkdb/internal/channel"
	"github.com/roach88/talkdb/internal/keys"
	"github.com/roach88/talkdb/internal/testutil"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testKey() keys.Key {
	return keys.Derive("channel$18294")
}

// openNormal opens a normal-channel store at path with a step clock.
func openNormal(t *testing.T, path string, clock *testutil.StepClock, opts ...Option) *NormalStore {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger()), WithClock(clock.Now)}, opts...)
	s, err := Open[channel.NormalInfo, channel.NormalUserInfo](path, testKey(), opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return s
}

func newTestStore(t *testing.T) (*NormalStore, *testutil.StepClock) {
	t.Helper()
	clock := testutil.NewStepClock(epoch, time.Second)
	path := filepath.Join(t.TempDir(), "ab", "cd", "doc")
	return openNormal(t, path, clock), clock
}
