package arena

import (
	"testing"
)

func TestAllocateSpansBlocks(t *testing.T) {
	a := New(WithBlockSize(64))

	const n = 20

	var chunks [][]byte

	for i := range n {
		p := a.Allocate(10)
		for j := range p {
			p[j] = byte(i)
		}

		chunks = append(chunks, p)
	}

	if a.Blocks() < 2 {
		t.Fatalf("Blocks() = %d, want at least 2", a.Blocks())
	}

	if a.Size() != n*10 {
		t.Errorf("Size() = %d, want %d", a.Size(), n*10)
	}

	for i, p := range chunks {
		if len(p) != 10 || cap(p) != 10 {
			t.Fatalf("chunk %d: len=%d cap=%d", i, len(p), cap(p))
		}

		for _, b := range p {
			if b != byte(i) {
				t.Fatalf("chunk %d overwritten: %v", i, p)
			}
		}
	}
}

func TestAllocateLargerThanBlock(t *testing.T) {
	a := New(WithBlockSize(16))

	p := a.Allocate(100)
	if len(p) != 100 {
		t.Fatalf("len = %d, want 100", len(p))
	}

	if a.Blocks() != 1 {
		t.Errorf("Blocks() = %d, want 1", a.Blocks())
	}
}

func TestAllocTyped(t *testing.T) {
	type pair struct {
		k string
		v *int
	}

	a := New()

	var ps []*pair

	for i := range 3 * slabLen {
		v := i
		p := Alloc[pair](a)
		p.k, p.v = "x", &v
		ps = append(ps, p)
	}

	for i, p := range ps {
		if *p.v != i {
			t.Fatalf("pair %d holds %d", i, *p.v)
		}
	}
}

func TestMakeSlice(t *testing.T) {
	a := New()

	s := MakeSlice[int](a, 3, 8)
	if len(s) != 3 || cap(s) != 8 {
		t.Fatalf("len=%d cap=%d, want 3/8", len(s), cap(s))
	}

	u := MakeSlice[int](a, 4, 4)
	s = append(s, 1, 2, 3, 4, 5)
	u[0] = 7

	if s[3] != 1 || u[0] != 7 {
		t.Errorf("slices alias: s=%v u=%v", s, u)
	}

	big := MakeSlice[int](a, 0, 4*slabLen)
	if cap(big) != 4*slabLen {
		t.Errorf("cap = %d", cap(big))
	}
}

func TestNilArenaUsesHeap(t *testing.T) {
	var a *Arena

	if p := a.Allocate(4); len(p) != 4 {
		t.Errorf("len = %d", len(p))
	}

	if p := Alloc[int](a); p == nil {
		t.Error("nil pointer")
	}

	a.Delete()

	if a.Blocks() != 0 || a.Deleted() {
		t.Error("nil arena reports state")
	}
}

func TestUseAfterDelete(t *testing.T) {
	a := New()
	a.Allocate(1)
	a.Delete()

	if !a.Deleted() || a.Blocks() != 0 {
		t.Fatal("arena not released")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()

	Alloc[int](a)
}
