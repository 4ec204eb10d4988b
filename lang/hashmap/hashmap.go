// Package hashmap implements a generic open-addressing hash table.
//
// Buckets are probed linearly over a power-of-two capacity. Removal leaves a
// tombstone that is skipped by lookups and iteration and is discarded the next
// time the table is resized. The table grows when more than half full and,
// when heap-backed, shrinks when less than one eighth full. Arena-backed
// tables draw bucket arrays from an [arena.Arena] and never shrink, since
// their storage is only reclaimed when the whole arena is deleted.
package hashmap

import (
	"iter"

	"github.com/zeebo/xxh3"

	"github.com/ardnew/plet/arena"
)

// MinCapacity is the smallest bucket count of any table.
const MinCapacity = 8

// Strategy selects where bucket storage comes from.
type Strategy uint8

const (
	// StrategyHeap allocates buckets from the Go heap and shrinks on low load.
	StrategyHeap Strategy = iota
	// StrategyArena allocates buckets from an arena and never shrinks.
	StrategyArena
)

func (s Strategy) String() string {
	switch s {
	case StrategyHeap:
		return "heap"
	case StrategyArena:
		return "arena"
	default:
		return "unknown"
	}
}

type state uint8

const (
	empty state = iota
	occupied
	tombstone
)

type bucket[K, V any] struct {
	key   K
	value V
	state state
}

// Map is an open-addressing hash table from K to V.
// The zero value is not usable; construct with [New].
type Map[K, V any] struct {
	hash     func(K) uint64
	eq       func(K, K) bool
	arena    *arena.Arena
	buckets  []bucket[K, V]
	size     int
	dead     int
	version  uint64
	strategy Strategy
}

// Option configures a [Map] at construction.
type Option func(*options)

type options struct {
	arena    *arena.Arena
	capacity int
}

// WithCapacity sets the initial capacity, rounded up to a power of two.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithArena backs the table with a, selecting [StrategyArena].
// A nil arena leaves the table heap-backed.
func WithArena(a *arena.Arena) Option {
	return func(o *options) { o.arena = a }
}

// New returns an empty table using hash and eq for keys.
func New[K, V any](
	hash func(K) uint64,
	eq func(K, K) bool,
	opts ...Option,
) *Map[K, V] {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	m := &Map[K, V]{hash: hash, eq: eq, arena: o.arena}
	if o.arena != nil {
		m.strategy = StrategyArena
	}

	m.buckets = m.alloc(roundPow2(o.capacity))

	return m
}

// String hashes a string key.
func String(s string) uint64 { return xxh3.HashString(s) }

// Bytes hashes a byte slice key.
func Bytes(b []byte) uint64 { return xxh3.Hash(b) }

// Equal is an equality function for comparable keys.
func Equal[K comparable](a, b K) bool { return a == b }

func roundPow2(n int) int {
	c := MinCapacity
	for c < n {
		c <<= 1
	}

	return c
}

func (m *Map[K, V]) alloc(n int) []bucket[K, V] {
	if m.strategy == StrategyArena && !m.arena.Deleted() {
		return arena.MakeSlice[bucket[K, V]](m.arena, n, n)
	}

	return make([]bucket[K, V], n)
}

// Len returns the number of live entries.
func (m *Map[K, V]) Len() int { return m.size }

// Cap returns the current bucket count.
func (m *Map[K, V]) Cap() int { return len(m.buckets) }

// Strategy returns the allocation strategy chosen at construction.
func (m *Map[K, V]) Strategy() Strategy { return m.strategy }

// find returns the index of key, or -1 and the first reusable slot.
func (m *Map[K, V]) find(key K) (found, free int) {
	mask := uint64(len(m.buckets) - 1)
	free = -1

	for i, n := m.hash(key)&mask, 0; n < len(m.buckets); i, n = (i+1)&mask, n+1 {
		b := &m.buckets[i]

		switch b.state {
		case empty:
			if free < 0 {
				free = int(i)
			}

			return -1, free

		case tombstone:
			if free < 0 {
				free = int(i)
			}

		case occupied:
			if m.eq(b.key, key) {
				return int(i), free
			}
		}
	}

	return -1, free
}

// Get returns the value stored for key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	if i, _ := m.find(key); i >= 0 {
		return m.buckets[i].value, true
	}

	var zero V

	return zero, false
}

// Add inserts key only if it is absent and reports whether it did.
func (m *Map[K, V]) Add(key K, value V) bool {
	i, free := m.find(key)
	if i >= 0 {
		return false
	}

	m.insert(free, key, value)

	return true
}

// Set inserts or replaces the value for key. When the key was present, the
// previous value is returned with existed set.
func (m *Map[K, V]) Set(key K, value V) (old V, existed bool) {
	i, free := m.find(key)
	if i >= 0 {
		old = m.buckets[i].value
		m.buckets[i].value = value
		m.version++

		return old, true
	}

	m.insert(free, key, value)

	return old, false
}

func (m *Map[K, V]) insert(slot int, key K, value V) {
	if m.buckets[slot].state == tombstone {
		m.dead--
	}

	m.buckets[slot] = bucket[K, V]{key: key, value: value, state: occupied}
	m.size++
	m.version++

	if m.size > len(m.buckets)/2 {
		m.resize(len(m.buckets) * 2)
	} else if m.size+m.dead == len(m.buckets) {
		// Every slot is used or dead: rehash in place to clear tombstones.
		m.resize(len(m.buckets))
	}
}

// Remove deletes key, leaving a tombstone, and returns the removed value.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	i, _ := m.find(key)
	if i < 0 {
		var zero V

		return zero, false
	}

	b := &m.buckets[i]
	old := b.value

	var zero bucket[K, V]

	*b = zero
	b.state = tombstone
	m.size--
	m.dead++
	m.version++

	if m.strategy == StrategyHeap &&
		len(m.buckets) > MinCapacity &&
		m.size < len(m.buckets)/8 {
		m.resize(len(m.buckets) / 2)
	}

	return old, true
}

func (m *Map[K, V]) resize(n int) {
	old := m.buckets
	m.buckets = m.alloc(n)
	m.dead = 0
	mask := uint64(n - 1)

	for _, b := range old {
		if b.state != occupied {
			continue
		}

		i := m.hash(b.key) & mask
		for m.buckets[i].state == occupied {
			i = (i + 1) & mask
		}

		m.buckets[i] = b
	}
}

// All iterates live entries in bucket order. Iteration is restartable but
// not resumable: it stops at the next step after any mutation of the table.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		version := m.version
		buckets := m.buckets

		for i := range buckets {
			if m.version != version {
				return
			}

			b := &buckets[i]
			if b.state != occupied {
				continue
			}

			if !yield(b.key, b.value) {
				return
			}
		}
	}
}

// Keys iterates live keys in bucket order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}
