package value

import "github.com/ardnew/plet/arena"

// InitialCapacity is the smallest capacity of a new array or object.
// Containers double their capacity when full.
const InitialCapacity = 16

// Array is an ordered, growable sequence of values.
type Array struct {
	arena *arena.Arena
	items []Value
}

func (*Array) Kind() Kind { return KindArray }

// NewArray returns an empty array with room for at least n items, drawing
// storage from a. A nil arena uses the heap.
func NewArray(a *arena.Arena, n int) *Array {
	arr := arena.Alloc[Array](a)
	arr.arena = a
	arr.items = arena.MakeSlice[Value](a, 0, max(n, InitialCapacity))

	return arr
}

// ArrayOf returns an array holding items.
func ArrayOf(a *arena.Arena, items ...Value) *Array {
	arr := NewArray(a, len(items))
	for _, v := range items {
		arr.Push(v)
	}

	return arr
}

// live returns a, or nil once a was deleted. A container reachable past the
// lifetime of its arena, through a closure env, grows on the heap.
func live(a *arena.Arena) *arena.Arena {
	if a.Deleted() {
		return nil
	}

	return a
}

func (arr *Array) Len() int { return len(arr.items) }

func (arr *Array) Cap() int { return cap(arr.items) }

// At returns the item at i. The caller checks the range.
func (arr *Array) At(i int) Value { return arr.items[i] }

// Set replaces the item at i. The caller checks the range.
func (arr *Array) Set(i int, v Value) { arr.items[i] = v }

// Items returns the backing slice. It is invalidated by Push.
func (arr *Array) Items() []Value { return arr.items }

// Push appends v, doubling the capacity when full.
func (arr *Array) Push(v Value) {
	if len(arr.items) == cap(arr.items) {
		arr.arena = live(arr.arena)
		grown := arena.MakeSlice[Value](arr.arena, len(arr.items), 2*max(cap(arr.items), InitialCapacity/2))
		copy(grown, arr.items)
		arr.items = grown
	}

	arr.items = append(arr.items, v)
}

// Pop removes and returns the last item, or Nil when empty.
func (arr *Array) Pop() Value {
	if len(arr.items) == 0 {
		return Nil{}
	}

	v := arr.items[len(arr.items)-1]
	arr.items = arr.items[:len(arr.items)-1]

	return v
}

// Concat returns a new array holding the items of arr followed by those of
// other.
func (arr *Array) Concat(a *arena.Arena, other *Array) *Array {
	out := NewArray(a, arr.Len()+other.Len())
	out.items = append(out.items, arr.items...)
	out.items = append(out.items, other.items...)

	return out
}

func (arr *Array) equals(other *Array) bool {
	if arr == other {
		return true
	}

	if arr.Len() != other.Len() {
		return false
	}

	for i, v := range arr.items {
		if !Equals(v, other.items[i]) {
			return false
		}
	}

	return true
}
