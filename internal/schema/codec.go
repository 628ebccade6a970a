package schema

import (
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/talkdb/internal/ir"
	"github.com/roach88/talkdb/internal/vault"
)

// Codec converts between a semantic Go value and the scalar bound to or
// scanned from SQLite.
type Codec interface {
	// SQLType is the declared column type used in DDL.
	SQLType() string
	// Serialize returns a value accepted by database/sql as a bind arg.
	// A nil result stores NULL.
	Serialize(v any) (any, error)
	// Deserialize converts a scanned value back to the semantic type.
	Deserialize(raw any) (any, error)
}

// Built-in codecs.
var (
	// Integer stores a Go int as a native SQLite integer.
	Integer Codec = integerCodec{}
	// LongInteger stores a Go int64 as its decimal string so the value
	// never passes through a float on either side.
	LongInteger Codec = longCodec{}
	// Text stores a Go string as-is.
	Text Codec = textCodec{}
	// Record stores an ir.Object as lossless JSON text.
	Record Codec = recordCodec{}
)

type integerCodec struct{}

func (integerCodec) SQLType() string { return "INTEGER" }

func (integerCodec) Serialize(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		// float64(math.MaxInt64) is 2^63
		if math.IsNaN(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return nil, fmt.Errorf("integer: cannot store %v", n)
		}
		return int64(n), nil
	default:
		return nil, fmt.Errorf("integer: unsupported type %T", v)
	}
}

func (integerCodec) Deserialize(raw any) (any, error) {
	switch n := raw.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case float64:
		return int(n), nil
	case []byte:
		return parseInteger(string(n))
	case string:
		return parseInteger(n)
	default:
		return nil, fmt.Errorf("integer: unsupported raw type %T", raw)
	}
}

func parseInteger(s string) (any, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("integer: %q is not numeric", s)
	}
	return int(f), nil
}

type longCodec struct{}

func (longCodec) SQLType() string { return "INTEGER" }

func (longCodec) Serialize(v any) (any, error) {
	switch n := v.(type) {
	case int64:
		return strconv.FormatInt(n, 10), nil
	case int:
		return strconv.FormatInt(int64(n), 10), nil
	default:
		return nil, fmt.Errorf("long: unsupported type %T", v)
	}
}

func (longCodec) Deserialize(raw any) (any, error) {
	switch n := raw.(type) {
	case int64:
		return n, nil
	case []byte:
		return parseLong(string(n))
	case string:
		return parseLong(n)
	default:
		return nil, fmt.Errorf("long: unsupported raw type %T", raw)
	}
}

func parseLong(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("long: %q is not a 64-bit integer", s)
	}
	return n, nil
}

type textCodec struct{}

func (textCodec) SQLType() string { return "TEXT" }

func (textCodec) Serialize(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("text: unsupported type %T", v)
	}
	return s, nil
}

func (textCodec) Deserialize(raw any) (any, error) {
	switch s := raw.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return fmt.Sprint(raw), nil
	}
}

type recordCodec struct{}

func (recordCodec) SQLType() string { return "TEXT" }

func (recordCodec) Serialize(v any) (any, error) {
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("record: unsupported type %T", v)
	}
	if obj == nil {
		return nil, nil
	}
	data, err := ir.MarshalLossless(obj)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	return string(data), nil
}

func (recordCodec) Deserialize(raw any) (any, error) {
	var data []byte
	switch s := raw.(type) {
	case string:
		data = []byte(s)
	case []byte:
		data = s
	default:
		return nil, fmt.Errorf("record: unsupported raw type %T", raw)
	}
	v, err := ir.UnmarshalLossless(data)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("record: stored value is %T, not an object", v)
	}
	return obj, nil
}

// Sealed wraps a text-producing codec so the stored column holds
// vault-sealed base64 instead of plaintext.
func Sealed(inner Codec, box *vault.Box) Codec {
	return sealedCodec{inner: inner, box: box}
}

type sealedCodec struct {
	inner Codec
	box   *vault.Box
}

func (sealedCodec) SQLType() string { return "TEXT" }

func (c sealedCodec) Serialize(v any) (any, error) {
	out, err := c.inner.Serialize(v)
	if err != nil || out == nil {
		return nil, err
	}
	var plain []byte
	switch s := out.(type) {
	case string:
		plain = []byte(s)
	case []byte:
		plain = s
	default:
		plain = []byte(fmt.Sprint(out))
	}
	return c.box.Seal(plain), nil
}

func (c sealedCodec) Deserialize(raw any) (any, error) {
	var sealed string
	switch s := raw.(type) {
	case string:
		sealed = s
	case []byte:
		sealed = string(s)
	default:
		return nil, fmt.Errorf("sealed: unsupported raw type %T", raw)
	}
	plain, err := c.box.Open(sealed)
	if err != nil {
		return nil, err
	}
	return c.inner.Deserialize(string(plain))
}
