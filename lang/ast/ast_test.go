package ast

import (
	"strings"
	"testing"

	"github.com/ardnew/plet/arena"
	"github.com/ardnew/plet/lang/symbol"
	"github.com/ardnew/plet/lang/token"
)

func sampleFn(syms *symbol.Table) *Fn {
	x, y, f := syms.Intern("x"), syms.Intern("y"), syms.Intern("f")

	return &Fn{
		Params: []symbol.Symbol{x},
		Body: &Block{Items: []Node{
			&Infix{Op: OpAdd, Left: &Name{Sym: x}, Right: &Name{Sym: y}},
			&Apply{Callee: &Name{Sym: f}, Args: []Node{&Int{Value: 1}}},
			&Object{Props: []Property{{Key: &Name{Sym: y}, Value: &String{Value: "k"}}}},
		}},
		Span: Span{Start: token.Pos{Line: 1, Column: 1}},
	}
}

func TestFreeVariables(t *testing.T) {
	syms := symbol.NewTable()
	fn := sampleFn(syms)

	free := FreeVariables(fn.Params, fn.Body)

	var names []string
	for _, s := range free {
		names = append(names, s.Name())
	}

	if got := strings.Join(names, ","); got != "y,f" {
		t.Errorf("FreeVariables = %s, want y,f", got)
	}

	inner := &Fn{
		Params: []symbol.Symbol{syms.Intern("z")},
		Free:   []symbol.Symbol{syms.Intern("x"), syms.Intern("w")},
	}
	outer := FreeVariables([]symbol.Symbol{syms.Intern("x")}, inner)

	if len(outer) != 1 || outer[0].Name() != "w" {
		t.Errorf("nested free variables = %v, want [w]", outer)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	syms := symbol.NewTable()
	fn := sampleFn(syms)

	a := arena.New()
	c, ok := Copy(fn, a).(*Fn)

	if !ok {
		t.Fatalf("Copy returned %T", c)
	}

	if Dump(c) != Dump(fn) {
		t.Fatalf("copy differs:\n%s\nvs\n%s", Dump(c), Dump(fn))
	}

	body := fn.Body.(*Block)
	body.Items[0] = &Int{Value: 99}
	fn.Params[0] = syms.Intern("changed")

	copied := c.Body.(*Block)
	if copied.Items[0].Kind() != KindInfix {
		t.Error("copy shares block items with the original")
	}

	if c.Params[0].Name() != "x" {
		t.Error("copy shares params with the original")
	}

	if c.Bounds().Start.Line != 1 {
		t.Errorf("span not preserved: %v", c.Bounds())
	}
}

func TestDump(t *testing.T) {
	syms := symbol.NewTable()
	tree := &Assign{
		Target: &Name{Sym: syms.Intern("n")},
		Value:  &Prefix{Op: OpNeg, Operand: &Float{Value: 1.5}},
		Op:     OpAdd,
	}

	want := strings.Join([]string{
		"assign += @0:0",
		"  name n @0:0",
		"  prefix - @0:0",
		"    float 1.5 @0:0",
		"",
	}, "\n")

	var sb strings.Builder
	if err := Fprint(&sb, tree); err != nil {
		t.Fatal(err)
	}

	if sb.String() != want {
		t.Errorf("Fprint:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestModuleFailed(t *testing.T) {
	m := &Module{File: "x.plet"}
	if m.Failed() {
		t.Fatal("empty module reported failure")
	}

	m.Errorf(token.Pos{Line: 2, Column: 3}, token.Pos{Line: 2, Column: 4}, "bad %s", "thing")

	if !m.Failed() {
		t.Fatal("module with error not failed")
	}

	if got := m.Diags[0].Error(); got != "x.plet:2:3: error: bad thing" {
		t.Errorf("diagnostic = %q", got)
	}
}
