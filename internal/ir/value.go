package ir

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"
)

// Value is a sealed interface over the structured values carried in
// attachments, supplements and channel documents.
// Only Null, String, Int, Float, Bool, Bytes, Array and Object implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents an explicit null.
type Null struct{}

func (Null) irValue() {}

// String represents a string value.
type String string

func (String) irValue() {}

// Int represents an integer value. Always int64 so ids survive untouched.
type Int int64

func (Int) irValue() {}

// Float represents a non-integral number.
type Float float64

func (Float) irValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) irValue() {}

// Bytes represents a binary blob.
type Bytes []byte

func (Bytes) irValue() {}

// Array represents an ordered list of values.
type Array []Value

func (Array) irValue() {}

// Object represents a map of string keys to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) irValue() {}

// Pair is a key-value pair for typed Object construction.
type Pair struct {
	Key   string
	Value Value
}

// O is a shorthand for Pair.
// Example: NewObject(O("name", String("cart")), O("count", Int(5)))
func O(key string, value Value) Pair {
	return Pair{Key: key, Value: value}
}

// NewObject creates an Object from key-value pairs.
func NewObject(pairs ...Pair) Object {
	obj := make(Object, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// SortedKeys returns keys in UTF-16 code unit order.
// Go's sort.Strings uses UTF-8 byte order, which differs for surrogates.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// Clone returns a deep copy of obj. A nil Object stays nil.
func (obj Object) Clone() Object {
	if obj == nil {
		return nil
	}
	out := make(Object, len(obj))
	for k, v := range obj {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v Value) Value {
	switch val := v.(type) {
	case Object:
		return val.Clone()
	case Array:
		arr := make(Array, len(val))
		for i, elem := range val {
			arr[i] = cloneValue(elem)
		}
		return arr
	case Bytes:
		return Bytes(bytes.Clone(val))
	default:
		return v
	}
}

// Merge deep-merges patch into a copy of base and returns the copy.
// Nested objects merge key by key; every other value in patch replaces
// the value in base, including Null.
func Merge(base, patch Object) Object {
	out := base.Clone()
	if out == nil {
		out = make(Object, len(patch))
	}
	for k, pv := range patch {
		if pObj, ok := pv.(Object); ok {
			if bObj, ok := out[k].(Object); ok {
				out[k] = Merge(bObj, pObj)
				continue
			}
		}
		out[k] = cloneValue(pv)
	}
	return out
}

// Equal reports whether a and b hold the same value.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, ok := bv[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Bytes:
		bv, ok := b.(Bytes)
		return ok && bytes.Equal(av, bv)
	default:
		return a == b
	}
}

// Int64 extracts an integer from v, accepting the decimal-string form
// used for watermarks and ids that crossed a JavaScript boundary.
func Int64(v Value) (int64, error) {
	switch val := v.(type) {
	case Int:
		return int64(val), nil
	case Float:
		if float64(val) != float64(int64(val)) {
			return 0, fmt.Errorf("not an integer: %v", float64(val))
		}
		return int64(val), nil
	case String:
		n, err := strconv.ParseInt(string(val), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", string(val))
		}
		return n, nil
	default:
		return 0, fmt.Errorf("not an integer: %T", v)
	}
}
