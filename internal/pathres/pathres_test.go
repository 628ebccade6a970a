package pathres

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	assert.Equal(t, "user$1/channel$2", Identity{}.Resolve("user$1/channel$2"))
}

func TestSHA1(t *testing.T) {
	// sha1("abc")
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", SHA1{}.Resolve("abc"))

	long := strings.Repeat("x", 4096)
	assert.Len(t, SHA1{}.Resolve(long), 40)
}

func TestSharded(t *testing.T) {
	// sha256("abc")
	const h = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

	got := Sharded{}.Resolve("abc")

	assert.Equal(t, filepath.Join("ba", "78", h), got)
}

func TestShardedDeterministic(t *testing.T) {
	r := Sharded{}
	for _, in := range []string{"", "user$1/chatdata", "user$1/channel$99", "ü"} {
		assert.Equal(t, r.Resolve(in), r.Resolve(in))
	}
	assert.NotEqual(t, r.Resolve("user$1/channel$1"), r.Resolve("user$1/channel$2"))
}

func TestShardedLayout(t *testing.T) {
	got := Sharded{}.Resolve("user$1/channel$2")
	parts := strings.Split(got, string(filepath.Separator))

	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 2)
	assert.Len(t, parts[1], 2)
	assert.Len(t, parts[2], 64)
	assert.Equal(t, parts[2][0:2], parts[0])
	assert.Equal(t, parts[2][2:4], parts[1])
}

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		want Resolver
	}{
		{NameIdentity, Identity{}},
		{NameSHA1, SHA1{}},
		{NameSharded, Sharded{}},
		{"", Sharded{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ByName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r)
		})
	}

	_, err := ByName("md5")
	assert.ErrorIs(t, err, ErrUnknownResolver)
}

func TestDefault(t *testing.T) {
	assert.Equal(t, Sharded{}, Default())
}
