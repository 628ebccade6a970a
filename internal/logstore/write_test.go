package logstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/talkdb/internal/chatlog"
)

func TestAppend_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	e := entry(3158204847268585473)
	e.SenderID = 9007199254740993
	e.Attachment = attachment()

	require.NoError(t, s.Append(ctx, e))

	got, err := s.Get(ctx, e.LogID)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestAppend_Empty(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.Append(context.Background()))
}

func TestAppend_UpsertSameLogID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := entry(7)
	second := entry(7)
	second.Text = text("edited")
	second.Type = 2

	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestAppend_Batch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, entries(1, 2, 3, 2)...))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAppend_CancelledContext(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	cctx, cancel := context.WithCancel(ctx)
	cancel()

	err := s.Append(cctx, entries(1, 2)...)
	require.Error(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestColumnCipher_HidesPlaintext(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	e := entry(1)
	e.Text = text("meet at the station")
	e.Attachment = attachment()
	require.NoError(t, s.Append(ctx, e))

	var rawText, rawAttachment string
	var rawLogID int64
	err := s.db.QueryRow("SELECT logId, text, attachment FROM chats").Scan(&rawLogID, &rawText, &rawAttachment)
	require.NoError(t, err)

	assert.Equal(t, int64(1), rawLogID)
	assert.NotContains(t, rawText, "station")
	assert.NotContains(t, rawAttachment, "talkm")
}

func TestColumnCipher_PlainReaderSeesCiphertext(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, entry(1)))

	other := newStore(s.db, chatlog.Schema(nil))
	other.pageSize = s.pageSize
	other.logger = s.logger

	// plaintext codecs read sealed text as opaque base64, never the original
	got, err := other.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got.Text)
	assert.NotEqual(t, "msg", *got.Text)
}

func TestUpdatePartial(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	e := entry(5)
	e.Attachment = attachment()
	require.NoError(t, s.Append(ctx, e))

	ok, err := s.UpdatePartial(ctx, 5, chatlog.NewPatch().SetText(text("edited")).SetAttachment(nil))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Get(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, got.Text)
	assert.Equal(t, "edited", *got.Text)
	assert.Nil(t, got.Attachment)
	// untouched
	assert.Equal(t, e.SenderID, got.SenderID)
	assert.Equal(t, e.SendAt, got.SendAt)
}

func TestUpdatePartial_Missing(t *testing.T) {
	s := createTestStore(t)

	ok, err := s.UpdatePartial(context.Background(), 404, chatlog.NewPatch().SetType(2))

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdatePartial_EmptyPatch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, entry(1)))

	ok, err := s.UpdatePartial(ctx, 1, chatlog.NewPatch())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.UpdatePartial(ctx, 1, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, entries(1, 2)...))

	ok, err := s.Remove(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Remove(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
