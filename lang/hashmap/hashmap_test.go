package hashmap

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/ardnew/plet/arena"
)

func newStringMap(opts ...Option) *Map[string, int] {
	return New[string, int](String, Equal[string], opts...)
}

// collidingHash sends every key to the same bucket to exercise probing.
func collidingHash(string) uint64 { return 3 }

func TestAddGetRemove(t *testing.T) {
	tests := []struct {
		name string
		m    *Map[string, int]
	}{
		{"heap", newStringMap()},
		{"arena", newStringMap(WithArena(arena.New()))},
		{"colliding", New[string, int](collidingHash, Equal[string])},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.m

			for i := range 100 {
				if !m.Add(fmt.Sprint(i), i) {
					t.Fatalf("Add(%d) reported existing key", i)
				}
			}

			if m.Add("7", 700) {
				t.Error("Add of existing key succeeded")
			}

			for i := range 100 {
				v, ok := m.Get(fmt.Sprint(i))
				if !ok || v != i {
					t.Fatalf("Get(%d) = %d, %v", i, v, ok)
				}
			}

			for i := 0; i < 100; i += 2 {
				if v, ok := m.Remove(fmt.Sprint(i)); !ok || v != i {
					t.Fatalf("Remove(%d) = %d, %v", i, v, ok)
				}
			}

			if _, ok := m.Remove("0"); ok {
				t.Error("second Remove succeeded")
			}

			if m.Len() != 50 {
				t.Errorf("Len() = %d, want 50", m.Len())
			}

			for i := range 100 {
				_, ok := m.Get(fmt.Sprint(i))
				if ok != (i%2 == 1) {
					t.Errorf("Get(%d) present = %v", i, ok)
				}
			}
		})
	}
}

func TestSet(t *testing.T) {
	m := newStringMap()

	if _, existed := m.Set("a", 1); existed {
		t.Error("Set on empty map reported existing")
	}

	old, existed := m.Set("a", 2)
	if !existed || old != 1 {
		t.Errorf("Set = %d, %v; want 1, true", old, existed)
	}

	if v, _ := m.Get("a"); v != 2 {
		t.Errorf("Get = %d, want 2", v)
	}

	if m.Len() != 1 {
		t.Errorf("Len() = %d", m.Len())
	}
}

func TestIterationVisitsLiveEntries(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	m := newStringMap()
	live := make(map[string]int)

	for i := range 2000 {
		k := fmt.Sprint(r.IntN(300))

		if r.IntN(3) == 0 {
			m.Remove(k)
			delete(live, k)
		} else {
			m.Set(k, i)
			live[k] = i
		}
	}

	if m.Len() != len(live) {
		t.Fatalf("Len() = %d, want %d", m.Len(), len(live))
	}

	seen := make(map[string]bool)

	for k, v := range m.All() {
		if seen[k] {
			t.Fatalf("key %q visited twice", k)
		}

		seen[k] = true

		if live[k] != v {
			t.Errorf("%q = %d, want %d", k, v, live[k])
		}
	}

	if len(seen) != len(live) {
		t.Errorf("visited %d entries, want %d", len(seen), len(live))
	}
}

func TestResize(t *testing.T) {
	m := newStringMap()

	for i := range 1000 {
		m.Add(fmt.Sprint(i), i)

		if m.Len() > m.Cap()/2 {
			t.Fatalf("load factor exceeded: %d/%d", m.Len(), m.Cap())
		}
	}

	grown := m.Cap()

	for i := range 995 {
		m.Remove(fmt.Sprint(i))
	}

	if m.Cap() >= grown {
		t.Errorf("heap map did not shrink: cap %d", m.Cap())
	}

	for i := 995; i < 1000; i++ {
		if v, ok := m.Get(fmt.Sprint(i)); !ok || v != i {
			t.Errorf("Get(%d) after shrink = %d, %v", i, v, ok)
		}
	}
}

func TestArenaNeverShrinks(t *testing.T) {
	m := newStringMap(WithArena(arena.New()))
	if m.Strategy() != StrategyArena {
		t.Fatalf("Strategy() = %v", m.Strategy())
	}

	for i := range 500 {
		m.Add(fmt.Sprint(i), i)
	}

	grown := m.Cap()

	for i := range 500 {
		m.Remove(fmt.Sprint(i))
	}

	if m.Cap() != grown {
		t.Errorf("arena map changed capacity %d -> %d", grown, m.Cap())
	}

	if m.Len() != 0 {
		t.Errorf("Len() = %d", m.Len())
	}
}

func TestArenaMapGrowsAfterDelete(t *testing.T) {
	a := arena.New()
	m := newStringMap(WithArena(a))
	a.Delete()

	for i := range 100 {
		m.Add(fmt.Sprint(i), i)
	}

	if v, ok := m.Get("99"); !ok || v != 99 {
		t.Errorf("Get(99) = %d, %v", v, ok)
	}
}

func TestTombstoneChurn(t *testing.T) {
	m := New[string, int](collidingHash, Equal[string], WithArena(arena.New()))

	for i := range 200 {
		k := fmt.Sprint(i)
		m.Add(k, i)
		m.Remove(k)
	}

	m.Add("x", 1)

	if v, ok := m.Get("x"); !ok || v != 1 {
		t.Errorf("Get(x) = %d, %v", v, ok)
	}
}

func TestIterationStopsAfterMutation(t *testing.T) {
	m := newStringMap()
	for i := range 10 {
		m.Add(fmt.Sprint(i), i)
	}

	n := 0

	for k := range m.Keys() {
		n++

		m.Remove(k)
	}

	if n != 1 {
		t.Errorf("visited %d entries after mutation, want 1", n)
	}

	n = 0
	for range m.All() {
		n++
	}

	if n != 9 {
		t.Errorf("restarted iteration visited %d, want 9", n)
	}
}
