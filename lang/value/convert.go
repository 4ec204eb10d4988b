package value

import (
	"fmt"
	"reflect"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/plet/arena"
)

// FromGo converts a decoded Go value into a [Value] allocated from a.
// Booleans map to True and Nil, integers to Int, and floats to Float.
// Maps become objects with String keys. Ordered YAML mappings keep their
// order. Unsupported values convert to their fmt.Sprint text.
func FromGo(x any, a *arena.Arena) Value {
	switch x := x.(type) {
	case nil:
		return Nil{}
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(x)
	case int8:
		return Int(x)
	case int16:
		return Int(x)
	case int32:
		return Int(x)
	case int64:
		return Int(x)
	case uint:
		return Int(x) //nolint:gosec
	case uint8:
		return Int(x)
	case uint16:
		return Int(x)
	case uint32:
		return Int(x)
	case uint64:
		return Int(x) //nolint:gosec
	case float32:
		return Float(x)
	case float64:
		return Float(x)
	case string:
		return String(x)
	case []byte:
		return String(x)
	case time.Time:
		return Time{x}
	case []any:
		arr := NewArray(a, len(x))
		for _, item := range x {
			arr.Push(FromGo(item, a))
		}

		return arr
	case map[string]any:
		obj := NewObject(a, len(x))
		for k, v := range x {
			obj.Put(String(k), FromGo(v, a))
		}

		return obj
	case yaml.MapSlice:
		obj := NewObject(a, len(x))
		for _, item := range x {
			obj.Put(FromGo(item.Key, a), FromGo(item.Value, a))
		}

		return obj
	}

	rv := reflect.ValueOf(x)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		arr := NewArray(a, rv.Len())
		for i := range rv.Len() {
			arr.Push(FromGo(rv.Index(i).Interface(), a))
		}

		return arr
	case reflect.Map:
		obj := NewObject(a, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			obj.Put(FromGo(iter.Key().Interface(), a), FromGo(iter.Value().Interface(), a))
		}

		return obj
	case reflect.Pointer:
		if rv.IsNil() {
			return Nil{}
		}

		return FromGo(rv.Elem().Interface(), a)
	}

	return String(fmt.Sprint(x))
}

// ToGo converts v into plain Go values: nil, bool, int64, float64, string,
// time.Time, []any and map[string]any. Object keys are converted with
// [ToString]. Functions become the string "(function)".
func ToGo(v Value) any {
	switch v := v.(type) {
	case nil, Nil:
		return nil
	case True:
		return true
	case Int:
		return int64(v)
	case Float:
		return float64(v)
	case Symbol:
		return v.Name()
	case String:
		return string(v)
	case Time:
		return v.Time
	case *Array:
		out := make([]any, v.Len())
		for i, item := range v.items {
			out[i] = ToGo(item)
		}

		return out
	case *Object:
		out := make(map[string]any, v.Len())
		for i, k := range v.keys {
			out[ToString(k)] = ToGo(v.values[i])
		}

		return out
	}

	return "(function)"
}

// ToYAML converts v like [ToGo] except that objects become ordered
// yaml.MapSlice values, so encoding preserves insertion order.
func ToYAML(v Value) any {
	switch v := v.(type) {
	case *Array:
		out := make([]any, v.Len())
		for i, item := range v.items {
			out[i] = ToYAML(item)
		}

		return out
	case *Object:
		out := make(yaml.MapSlice, 0, v.Len())
		for i, k := range v.keys {
			out = append(out, yaml.MapItem{Key: ToString(k), Value: ToYAML(v.values[i])})
		}

		return out
	case Time:
		return v.UTC().Format(time.RFC3339)
	}

	return ToGo(v)
}
