package ir

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Wrapper keys for values a plain JSON number or string cannot carry
// without loss. A JSON reader that only knows IEEE doubles still sees a
// valid document and the exact value survives in the string.
//
// An Object whose only key is one of these is itself wrapped in
// {"$object":{...}} so it is never read back as a wrapper.
const (
	longKey   = "$long"
	binaryKey = "$binary"
	objectKey = "$object"
)

// maxSafeInteger is the largest integer an IEEE double holds exactly.
const maxSafeInteger = 1<<53 - 1

// MarshalLossless encodes v as JSON. Integers outside ±(2^53-1) are
// written as {"$long":"<decimal>"} and byte blobs as {"$binary":"<base64>"}.
// Objects that would read as one of those wrappers are written as
// {"$object":{...}}. Object keys are emitted in SortedKeys order so output is deterministic.
func MarshalLossless(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalLossless decodes JSON produced by MarshalLossless (or any plain
// JSON) without routing integers through float64.
func UnmarshalLossless(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	return unmarshalValue(data)
}

// MarshalJSON implements json.Marshaler using the lossless form.
func (obj Object) MarshalJSON() ([]byte, error) {
	return MarshalLossless(obj)
}

// UnmarshalJSON implements json.Unmarshaler using the lossless form.
func (obj *Object) UnmarshalJSON(data []byte) error {
	v, err := UnmarshalLossless(data)
	if err != nil {
		return err
	}
	switch val := v.(type) {
	case Object:
		*obj = val
	case Null:
		*obj = nil
	default:
		return fmt.Errorf("expected JSON object, got %T", v)
	}
	return nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case String:
		return writeString(buf, string(val))
	case Int:
		if val > maxSafeInteger || val < -maxSafeInteger {
			buf.WriteString(`{"` + longKey + `":"`)
			buf.WriteString(strconv.FormatInt(int64(val), 10))
			buf.WriteString(`"}`)
			return nil
		}
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("unsupported float value: %v", f)
		}
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			// keep integral floats distinguishable from Int on the way back
			s += ".0"
		}
		buf.WriteString(s)
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Bytes:
		buf.WriteString(`{"` + binaryKey + `":"`)
		buf.WriteString(base64.StdEncoding.EncodeToString(val))
		buf.WriteString(`"}`)
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Object:
		if !isWrapperShaped(val) {
			return writeObject(buf, val)
		}
		buf.WriteString(`{"` + objectKey + `":`)
		if err := writeObject(buf, val); err != nil {
			return err
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown Value type: %T", v)
	}
	return nil
}

func writeObject(buf *bytes.Buffer, obj Object) error {
	buf.WriteByte('{')
	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, obj[k]); err != nil {
			return fmt.Errorf("object[%q]: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// isWrapperShaped reports whether obj has a single key that names a
// wrapper.
func isWrapperShaped(obj Object) bool {
	if len(obj) != 1 {
		return false
	}
	for k := range obj {
		return k == longKey || k == binaryKey || k == objectKey
	}
	return false
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// json.Encoder adds a trailing newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

func unmarshalValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case 'n':
		if string(data) != "null" {
			return nil, fmt.Errorf("invalid JSON literal: %s", data)
		}
		return Null{}, nil

	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		arr := make(Array, len(raw))
		for i, elem := range raw {
			val, err := unmarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = val
		}
		return arr, nil

	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		if v, ok, err := unwrapSpecial(raw); ok || err != nil {
			return v, err
		}
		return objectFromRaw(raw)

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		s := string(n)
		if strings.ContainsAny(s, ".eE") {
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("invalid number %s: %w", s, err)
			}
			return Float(f), nil
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("integer out of int64 range: %s", s)
		}
		return Int(i), nil
	}
}

func objectFromRaw(raw map[string]json.RawMessage) (Object, error) {
	obj := make(Object, len(raw))
	for k, elem := range raw {
		val, err := unmarshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", k, err)
		}
		obj[k] = val
	}
	return obj, nil
}

// unwrapSpecial recognizes the single-key wrapper objects written by
// MarshalLossless.
func unwrapSpecial(raw map[string]json.RawMessage) (Value, bool, error) {
	if len(raw) != 1 {
		return nil, false, nil
	}
	if data, ok := raw[longKey]; ok {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, false, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, true, fmt.Errorf("invalid %s value %q: %w", longKey, s, err)
		}
		return Int(n), true, nil
	}
	if data, ok := raw[binaryKey]; ok {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, false, nil
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, true, fmt.Errorf("invalid %s value: %w", binaryKey, err)
		}
		return Bytes(b), true, nil
	}
	if data, ok := raw[objectKey]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err != nil || inner == nil {
			return nil, false, nil
		}
		obj, err := objectFromRaw(inner)
		return obj, true, err
	}
	return nil, false, nil
}
