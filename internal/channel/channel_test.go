package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/talkdb/internal/ir"
)

func TestKinds(t *testing.T) {
	infos := []Info{NormalInfo{ChannelID: 1}, OpenInfo{NormalInfo: NormalInfo{ChannelID: 2}}}
	assert.Equal(t, KindNormal, infos[0].Kind())
	assert.Equal(t, KindOpen, infos[1].Kind())
	assert.Equal(t, int64(2), infos[1].ID())

	users := []UserInfo{NormalUserInfo{ID: 3}, OpenUserInfo{ID: 4}}
	assert.Equal(t, int64(3), users[0].UserID())
	assert.Equal(t, KindOpen, users[1].Kind())
}

func TestNormalInfo_RoundTrip(t *testing.T) {
	in := NormalInfo{
		ChannelID:       18294311491251,
		Type:            "MultiChat",
		ActiveUserCount: 3,
		LastChatLogID:   3158204847268585473,
		DisplayUserList: []DisplayUser{{UserID: 9007199254740993, Nickname: "mina"}},
		PushAlert:       true,
	}

	obj, err := ToObject(in)
	require.NoError(t, err)
	assert.Equal(t, ir.Int(3158204847268585473), obj["lastChatLogId"])
	assert.Equal(t, ir.String("MultiChat"), obj["type"])

	got, err := Decode[NormalInfo](obj)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestOpenInfo_InlinesNormal(t *testing.T) {
	in := OpenInfo{
		NormalInfo: NormalInfo{ChannelID: 7, Type: "OM"},
		LinkID:     555,
		OpenToken:  1700000000,
	}

	obj, err := ToObject(in)
	require.NoError(t, err)
	assert.Equal(t, ir.Int(7), obj["channelId"])
	assert.Equal(t, ir.Int(555), obj["linkId"])

	got, err := Decode[OpenInfo](obj)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestUserInfo_RoundTrip(t *testing.T) {
	normal := NormalUserInfo{ID: 1, Nickname: "a", UserType: 1, CountryIso: "KR"}
	obj, err := ToObject(normal)
	require.NoError(t, err)
	gotNormal, err := Decode[NormalUserInfo](obj)
	require.NoError(t, err)
	assert.Equal(t, normal, gotNormal)

	open := OpenUserInfo{ID: 2, Nickname: "b", LinkID: 9, Perm: 2}
	obj, err = ToObject(open)
	require.NoError(t, err)
	gotOpen, err := Decode[OpenUserInfo](obj)
	require.NoError(t, err)
	assert.Equal(t, open, gotOpen)
}

func TestFromObject_IgnoresUnknownKeys(t *testing.T) {
	obj := ir.NewObject(
		ir.O("userId", ir.Int(5)),
		ir.O("nickname", ir.String("x")),
		ir.O("unknownFlag", ir.Bool(true)),
		ir.O("blob", ir.Bytes{1, 2}),
	)

	got, err := Decode[NormalUserInfo](obj)

	require.NoError(t, err)
	assert.Equal(t, NormalUserInfo{ID: 5, Nickname: "x"}, got)
}

func TestFromObject_TypeMismatch(t *testing.T) {
	obj := ir.NewObject(ir.O("userId", ir.String("not a number")))

	_, err := Decode[NormalUserInfo](obj)

	assert.Error(t, err)
}

func TestFromObject_NilObject(t *testing.T) {
	got, err := Decode[NormalInfo](nil)

	require.NoError(t, err)
	assert.Equal(t, NormalInfo{}, got)
}
