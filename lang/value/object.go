package value

import (
	"iter"

	"github.com/ardnew/plet/arena"
)

// Object is an insertion-ordered map from values to values. Keys are found
// by a linear scan with [Equals], so any value may be a key. Names written
// in object literals become Symbol keys.
type Object struct {
	arena  *arena.Arena
	keys   []Value
	values []Value
}

func (*Object) Kind() Kind { return KindObject }

// NewObject returns an empty object with room for at least n entries.
func NewObject(a *arena.Arena, n int) *Object {
	obj := arena.Alloc[Object](a)
	obj.arena = a
	obj.keys = arena.MakeSlice[Value](a, 0, max(n, InitialCapacity))
	obj.values = arena.MakeSlice[Value](a, 0, max(n, InitialCapacity))

	return obj
}

func (obj *Object) Len() int { return len(obj.keys) }

func (obj *Object) index(key Value) int {
	for i, k := range obj.keys {
		if Equals(k, key) {
			return i
		}
	}

	return -1
}

// Get returns the value stored under key.
func (obj *Object) Get(key Value) (Value, bool) {
	if i := obj.index(key); i >= 0 {
		return obj.values[i], true
	}

	return Nil{}, false
}

// Has reports whether key is present.
func (obj *Object) Has(key Value) bool { return obj.index(key) >= 0 }

// Put stores value under key. An existing key keeps its position.
func (obj *Object) Put(key, value Value) {
	if i := obj.index(key); i >= 0 {
		obj.values[i] = value

		return
	}

	if len(obj.keys) == cap(obj.keys) {
		n := 2 * max(cap(obj.keys), InitialCapacity/2)
		obj.arena = live(obj.arena)

		keys := arena.MakeSlice[Value](obj.arena, len(obj.keys), n)
		copy(keys, obj.keys)
		obj.keys = keys

		values := arena.MakeSlice[Value](obj.arena, len(obj.values), n)
		copy(values, obj.values)
		obj.values = values
	}

	obj.keys = append(obj.keys, key)
	obj.values = append(obj.values, value)
}

// Remove deletes key, preserving the order of the remaining entries.
func (obj *Object) Remove(key Value) (Value, bool) {
	i := obj.index(key)
	if i < 0 {
		return Nil{}, false
	}

	v := obj.values[i]
	obj.keys = append(obj.keys[:i], obj.keys[i+1:]...)
	obj.values = append(obj.values[:i], obj.values[i+1:]...)

	return v, true
}

// Field looks up a named property. A Symbol key is preferred, then a String
// key with the same text, so data read from JSON is reachable with dots.
func (obj *Object) Field(name string) (Value, bool) {
	for i, k := range obj.keys {
		if s, ok := k.(Symbol); ok && s.Name() == name {
			return obj.values[i], true
		}
	}

	for i, k := range obj.keys {
		if s, ok := k.(String); ok && string(s) == name {
			return obj.values[i], true
		}
	}

	return Nil{}, false
}

// KeyAt and ValueAt index entries in insertion order.
func (obj *Object) KeyAt(i int) Value   { return obj.keys[i] }
func (obj *Object) ValueAt(i int) Value { return obj.values[i] }

// All yields entries in insertion order.
func (obj *Object) All() iter.Seq2[Value, Value] {
	return func(yield func(Value, Value) bool) {
		for i := range obj.keys {
			if !yield(obj.keys[i], obj.values[i]) {
				return
			}
		}
	}
}

// Merge returns a new object with the entries of obj overlaid by other.
func (obj *Object) Merge(a *arena.Arena, other *Object) *Object {
	out := NewObject(a, obj.Len()+other.Len())
	for k, v := range obj.All() {
		out.Put(k, v)
	}

	for k, v := range other.All() {
		out.Put(k, v)
	}

	return out
}

func (obj *Object) equals(other *Object) bool {
	if obj == other {
		return true
	}

	if obj.Len() != other.Len() {
		return false
	}

	for i, k := range obj.keys {
		v, ok := other.Get(k)
		if !ok || !Equals(obj.values[i], v) {
			return false
		}
	}

	return true
}
