package docstore

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/talkdb/internal/channel"
	"github.com/roach88/talkdb/internal/ir"
	"github.com/roach88/talkdb/internal/keys"
	"github.com/roach88/talkdb/internal/testutil"
)

func TestUpdateUserInfo_InsertThenMerge(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.UpdateUserInfo(ctx, 7, ir.NewObject(
		ir.O("userId", ir.Int(7)),
		ir.O("nickname", ir.String("old")),
		ir.O("countryIso", ir.String("KR")),
	)))
	require.NoError(t, s.UpdateUserInfo(ctx, 7, ir.NewObject(ir.O("nickname", ir.String("new")))))

	u, ok, err := s.UserInfo(7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, channel.NormalUserInfo{ID: 7, Nickname: "new", CountryIso: "KR"}, u)
	assert.Equal(t, 1, s.UserCount())
}

func TestUserInfo_Missing(t *testing.T) {
	s, _ := newTestStore(t)

	_, ok, err := s.UserInfo(1)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, s.UserObject(1))
}

func TestAllUserInfo(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	for _, id := range []int64{3, 1, 2} {
		require.NoError(t, s.PutUser(ctx, channel.NormalUserInfo{ID: id, Nickname: "u"}))
	}

	var ids []int64
	for u, err := range s.AllUserInfo() {
		require.NoError(t, err)
		ids = append(ids, u.UserID())
	}
	slices.Sort(ids)

	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestAllUserInfo_Snapshot(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.PutUser(ctx, channel.NormalUserInfo{ID: 1}))

	seq := s.AllUserInfo()
	require.NoError(t, s.PutUser(ctx, channel.NormalUserInfo{ID: 2}))

	n := 0
	for range seq {
		n++
	}
	assert.Equal(t, 1, n)
}

func TestRemoveUser(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.PutUser(ctx, channel.NormalUserInfo{ID: 1}))
	require.NoError(t, s.UpdateWatermark(ctx, 1, 50))
	require.NoError(t, s.UpdateWatermark(ctx, 2, 50)) // watermark only

	ok, err := s.RemoveUser(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	_, has := s.Watermark(1)
	assert.False(t, has, "watermark removed with user")

	ok, err = s.RemoveUser(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok, "watermark alone counts as existing")

	ok, err = s.RemoveUser(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClearUserList_KeepsWatermarks(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.PutUser(ctx, channel.NormalUserInfo{ID: 1}))
	require.NoError(t, s.UpdateWatermark(ctx, 1, 10))

	require.NoError(t, s.ClearUserList(ctx))

	assert.Equal(t, 0, s.UserCount())
	_, ok := s.Watermark(1)
	assert.True(t, ok)
}

func TestOpenChannelStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "open")
	key := keys.Derive("open_channel$5$77")
	clock := testutil.NewStepClock(epoch, time.Second)

	s, err := Open[channel.OpenInfo, channel.OpenUserInfo](path, key,
		WithLogger(discardLogger()), WithClock(clock.Now))
	require.NoError(t, err)

	info := channel.OpenInfo{NormalInfo: channel.NormalInfo{ChannelID: 5, Type: "OM"}, LinkID: 77}
	require.NoError(t, s.SetInfo(ctx, info))
	require.NoError(t, s.PutUser(ctx, channel.OpenUserInfo{ID: 9, Nickname: "host", Perm: 1, LinkID: 77}))

	var reopened *OpenStore
	reopened, err = Open[channel.OpenInfo, channel.OpenUserInfo](path, key, WithLogger(discardLogger()))
	require.NoError(t, err)

	got, ok, err := reopened.Info()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, info, got)

	u, ok, err := reopened.UserInfo(9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, u.Perm)
}
