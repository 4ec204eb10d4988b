// Package arena implements a region allocator with chained bump blocks.
//
// An [Arena] hands out memory that lives exactly as long as the arena itself.
// There is no per-object free: everything is released in one call to
// [Arena.Delete]. Raw byte storage comes from [Arena.Allocate]; typed storage
// comes from [Alloc] and [MakeSlice], which carve values out of per-type slabs
// so that pointers stored in arena memory remain visible to the Go collector.
//
// A nil *Arena is valid and allocates directly from the Go heap, which lets
// callers select an allocation strategy without branching at every call site.
package arena

import (
	"reflect"
)

// DefaultBlockSize is the minimum size in bytes of each raw block.
const DefaultBlockSize = 64 << 10

// slabLen is the number of values reserved per typed slab chunk.
const slabLen = 64

// Arena is a bump allocator over a linked chain of blocks.
type Arena struct {
	head      *block
	tail      *block
	slabs     map[reflect.Type]any
	blockSize int
	blocks    int
	size      int
	deleted   bool
}

type block struct {
	next *block
	data []byte
	used int
}

// Option configures an [Arena].
type Option func(*Arena)

// WithBlockSize sets the minimum block size. Non-positive sizes are ignored.
func WithBlockSize(n int) Option {
	return func(a *Arena) {
		if n > 0 {
			a.blockSize = n
		}
	}
}

// New returns an empty arena. No block is allocated until the first request.
func New(opts ...Option) *Arena {
	a := &Arena{
		blockSize: DefaultBlockSize,
		slabs:     make(map[reflect.Type]any),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Allocate returns size zeroed bytes owned by the arena.
//
// The request is served from the tail block when it fits. Otherwise a new
// block of max(size, block size) bytes is chained after the tail.
// The returned slice has its capacity clamped to size.
func (a *Arena) Allocate(size int) []byte {
	if size < 0 {
		panic("arena: negative allocation size")
	}

	if a == nil {
		return make([]byte, size)
	}

	a.live()

	if a.tail == nil || len(a.tail.data)-a.tail.used < size {
		a.grow(size)
	}

	b := a.tail
	p := b.data[b.used : b.used+size : b.used+size]
	b.used += size
	a.size += size

	return p
}

func (a *Arena) grow(size int) {
	n := max(a.blockSize, size)
	b := &block{data: make([]byte, n)}

	if a.tail == nil {
		a.head = b
	} else {
		a.tail.next = b
	}

	a.tail = b
	a.blocks++
}

// Delete releases every block and slab at once.
// Any further allocation from a panics.
func (a *Arena) Delete() {
	if a == nil {
		return
	}

	a.head, a.tail = nil, nil
	a.slabs = nil
	a.blocks, a.size = 0, 0
	a.deleted = true
}

// Blocks returns the number of raw blocks in the chain.
func (a *Arena) Blocks() int {
	if a == nil {
		return 0
	}

	return a.blocks
}

// Size returns the number of raw bytes handed out by [Arena.Allocate].
func (a *Arena) Size() int {
	if a == nil {
		return 0
	}

	return a.size
}

// Deleted reports whether [Arena.Delete] has been called.
func (a *Arena) Deleted() bool { return a != nil && a.deleted }

func (a *Arena) live() {
	if a.deleted {
		panic("arena: use after delete")
	}
}

type slab[T any] struct {
	chunk []T
}

func slabFor[T any](a *Arena) *slab[T] {
	t := reflect.TypeFor[T]()

	if s, ok := a.slabs[t]; ok {
		return s.(*slab[T]) //nolint:forcetypeassert
	}

	s := &slab[T]{}
	a.slabs[t] = s

	return s
}

// Alloc returns a pointer to a zero T owned by a.
func Alloc[T any](a *Arena) *T {
	if a == nil {
		return new(T)
	}

	a.live()

	s := slabFor[T](a)
	if len(s.chunk) == cap(s.chunk) {
		s.chunk = make([]T, 0, slabLen)
	}

	s.chunk = s.chunk[:len(s.chunk)+1]

	return &s.chunk[len(s.chunk)-1]
}

// MakeSlice returns a slice of n zero values with capacity c owned by a.
// Requests larger than a slab chunk get a dedicated backing array.
func MakeSlice[T any](a *Arena, n, c int) []T {
	c = max(n, c)

	if a == nil || c > slabLen {
		if a != nil {
			a.live()
		}

		return make([]T, n, c)
	}

	a.live()

	s := slabFor[T](a)
	if cap(s.chunk)-len(s.chunk) < c {
		s.chunk = make([]T, 0, slabLen)
	}

	lo := len(s.chunk)
	s.chunk = s.chunk[:lo+c]

	return s.chunk[lo : lo+n : lo+c]
}
