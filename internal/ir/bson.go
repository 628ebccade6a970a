package ir

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Native converts v into the plain Go values the bson encoder understands:
// nil, string, int64, float64, bool, []byte, []any and map[string]any.
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case Bytes:
		return []byte(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Native(elem)
		}
		return out
	case Object:
		return val.Native()
	default:
		return nil
	}
}

// Native converts obj into a map[string]any tree. A nil Object yields nil.
func (obj Object) Native() map[string]any {
	if obj == nil {
		return nil
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = Native(v)
	}
	return out
}

// FromNative converts a decoded Go value (from bson or plain maps) into a Value.
// bson int32 values widen to Int; embedded documents in either D or M form
// become Object.
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float64:
		return Float(val), nil
	case []byte:
		return Bytes(val), nil
	case primitive.Binary:
		return Bytes(val.Data), nil
	case primitive.DateTime:
		return Int(val), nil
	case time.Time:
		return Int(val.UnixMilli()), nil
	case primitive.Null, primitive.Undefined:
		return Null{}, nil
	case primitive.A:
		return arrayFromNative([]any(val))
	case []any:
		return arrayFromNative(val)
	case primitive.D:
		obj := make(Object, len(val))
		for _, e := range val {
			elem, err := FromNative(e.Value)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", e.Key, err)
			}
			obj[e.Key] = elem
		}
		return obj, nil
	case primitive.M:
		return ObjectFromNative(map[string]any(val))
	case map[string]any:
		return ObjectFromNative(val)
	default:
		return nil, fmt.Errorf("unsupported native type: %T", v)
	}
}

// ObjectFromNative converts a map tree into an Object.
func ObjectFromNative(m map[string]any) (Object, error) {
	obj := make(Object, len(m))
	for k, elem := range m {
		val, err := FromNative(elem)
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", k, err)
		}
		obj[k] = val
	}
	return obj, nil
}

func arrayFromNative(in []any) (Array, error) {
	arr := make(Array, len(in))
	for i, elem := range in {
		val, err := FromNative(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		arr[i] = val
	}
	return arr, nil
}

// MarshalBSONDocument encodes obj as a standalone BSON document.
func MarshalBSONDocument(obj Object) ([]byte, error) {
	if obj == nil {
		obj = Object{}
	}
	return bson.Marshal(obj.Native())
}

// UnmarshalBSONDocument decodes a standalone BSON document into an Object.
func UnmarshalBSONDocument(data []byte) (Object, error) {
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return ObjectFromNative(m)
}
