package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/talkdb/internal/testutil"
)

func TestMarshalLossless_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"null", Null{}, `null`},
		{"string", String("a<b>&c"), `"a<b>&c"`},
		{"small int", Int(42), `42`},
		{"max safe int", Int(maxSafeInteger), `9007199254740991`},
		{"beyond safe int", Int(maxSafeInteger + 2), `{"$long":"9007199254740993"}`},
		{"min int64", Int(math.MinInt64), `{"$long":"-9223372036854775808"}`},
		{"float", Float(1.25), `1.25`},
		{"integral float", Float(3), `3.0`},
		{"bool", Bool(false), `false`},
		{"bytes", Bytes("hi"), `{"$binary":"aGk="}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalLossless(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalLossless_RejectsNaN(t *testing.T) {
	_, err := MarshalLossless(Float(math.NaN()))
	assert.Error(t, err)
}

func TestLosslessRoundTrip(t *testing.T) {
	obj := Object{
		"logId":    Int(math.MaxInt64),
		"negative": Int(-(maxSafeInteger + 100)),
		"small":    Int(7),
		"ratio":    Float(0.5),
		"whole":    Float(2),
		"name":     String("photo.jpg"),
		"thumb":    Bytes{0x00, 0xff, 0x10},
		"flags":    Array{Bool(true), Null{}, Int(1)},
		"nested":   Object{"k": Object{"deep": Int(maxSafeInteger + 1)}},
	}

	data, err := MarshalLossless(obj)
	require.NoError(t, err)

	decoded, err := UnmarshalLossless(data)
	require.NoError(t, err)

	assert.True(t, Equal(obj, decoded), "round trip mismatch: %s", data)
}

func TestLosslessGolden(t *testing.T) {
	mentions := Array{
		Object{"user_id": Int(1234567890123456789), "at": Array{Int(1)}},
	}
	attachment := Object{
		"path":     String("/talkm/2024/photo.jpg"),
		"w":        Int(1280),
		"h":        Int(720),
		"size":     Int(183204),
		"k":        String("abc"),
		"srcId":    Int(9007199254740993),
		"thumb":    Bytes("png"),
		"ratio":    Float(1.7777),
		"mentions": mentions,
	}

	data, err := MarshalLossless(attachment)
	require.NoError(t, err)

	testutil.AssertGolden(t, "attachment", data)
}

func TestUnmarshalLossless_PlainJSONNumbers(t *testing.T) {
	// large ids written by other tools as bare numbers keep full precision
	v, err := UnmarshalLossless([]byte(`{"id": 9007199254740993, "f": 1e3}`))
	require.NoError(t, err)

	obj := v.(Object)
	assert.Equal(t, Int(9007199254740993), obj["id"])
	assert.Equal(t, Float(1000), obj["f"])
}

func TestUnmarshalLossless_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ``},
		{"truncated object", `{"a":`},
		{"bad literal", `nul`},
		{"overflow", `92233720368547758080`},
		{"bad long", `{"$long":"12x"}`},
		{"bad binary", `{"$binary":"!!"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalLossless([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalLossless_WrapperLookalikes(t *testing.T) {
	// a $long key next to other keys is an ordinary object
	v, err := UnmarshalLossless([]byte(`{"$long":"1","other":2}`))
	require.NoError(t, err)
	assert.Equal(t, Object{"$long": String("1"), "other": Int(2)}, v)

	// a non-string $long is an ordinary object too
	v, err = UnmarshalLossless([]byte(`{"$long":5}`))
	require.NoError(t, err)
	assert.Equal(t, Object{"$long": Int(5)}, v)
}

func TestLosslessRoundTrip_WrapperShapedObjects(t *testing.T) {
	tests := []struct {
		name string
		in   Object
		want string
	}{
		{"long string", Object{"$long": String("7")}, `{"$object":{"$long":"7"}}`},
		{"binary string", Object{"$binary": String("not base64!")}, `{"$object":{"$binary":"not base64!"}}`},
		{"long int", Object{"$long": Int(5)}, `{"$object":{"$long":5}}`},
		{"object object", Object{"$object": Object{"a": Int(1)}}, `{"$object":{"$object":{"a":1}}}`},
		{"object string", Object{"$object": String("x")}, `{"$object":{"$object":"x"}}`},
		{"nested", Object{"meta": Object{"$long": String("7")}}, `{"meta":{"$object":{"$long":"7"}}}`},
		{"with sibling", Object{"$long": String("7"), "b": Int(1)}, `{"$long":"7","b":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalLossless(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			decoded, err := UnmarshalLossless(data)
			require.NoError(t, err)
			assert.True(t, Equal(tt.in, decoded), "round trip mismatch: %s", data)
		})
	}
}

func TestObjectJSONInterfaces(t *testing.T) {
	type envelope struct {
		Attachment Object `json:"attachment,omitempty"`
	}

	in := envelope{Attachment: Object{"id": Int(math.MaxInt64)}}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"attachment":{"id":{"$long":"9223372036854775807"}}}`, string(data))

	var out envelope
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	var fromNull envelope
	require.NoError(t, json.Unmarshal([]byte(`{"attachment":null}`), &fromNull))
	assert.Nil(t, fromNull.Attachment)

	err = json.Unmarshal([]byte(`{"attachment":[1]}`), &out)
	assert.Error(t, err)
}
