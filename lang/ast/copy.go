package ast

import (
	"github.com/ardnew/plet/arena"
	"github.com/ardnew/plet/lang/symbol"
)

// Copy returns a deep copy of n whose nodes are allocated from a.
// The copy shares no node or slice with n, so it stays valid after the tree
// n came from is discarded. Strings are immutable and are shared.
func Copy(n Node, a *arena.Arena) Node {
	if n == nil {
		return nil
	}

	switch n := n.(type) {
	case *Name:
		return clone(a, n)
	case *Int:
		return clone(a, n)
	case *Float:
		return clone(a, n)
	case *String:
		return clone(a, n)
	case *Break:
		return clone(a, n)
	case *Continue:
		return clone(a, n)

	case *List:
		c := clone(a, n)
		c.Items = copyNodes(n.Items, a)

		return c

	case *Object:
		c := clone(a, n)
		c.Props = arena.MakeSlice[Property](a, len(n.Props), len(n.Props))

		for i, p := range n.Props {
			c.Props[i] = Property{Key: Copy(p.Key, a), Value: Copy(p.Value, a)}
		}

		return c

	case *Apply:
		c := clone(a, n)
		c.Callee = Copy(n.Callee, a)
		c.Args = copyNodes(n.Args, a)

		return c

	case *Subscript:
		c := clone(a, n)
		c.Target, c.Index = Copy(n.Target, a), Copy(n.Index, a)

		return c

	case *Dot:
		c := clone(a, n)
		c.Target = Copy(n.Target, a)

		return c

	case *Prefix:
		c := clone(a, n)
		c.Operand = Copy(n.Operand, a)

		return c

	case *Infix:
		c := clone(a, n)
		c.Left, c.Right = Copy(n.Left, a), Copy(n.Right, a)

		return c

	case *Fn:
		c := clone(a, n)
		c.Params = copySymbols(n.Params, a)
		c.Free = copySymbols(n.Free, a)
		c.Body = Copy(n.Body, a)

		return c

	case *If:
		c := clone(a, n)
		c.Cond, c.Then, c.Else = Copy(n.Cond, a), Copy(n.Then, a), Copy(n.Else, a)

		return c

	case *For:
		c := clone(a, n)
		c.Collection = Copy(n.Collection, a)
		c.Body, c.Else = Copy(n.Body, a), Copy(n.Else, a)

		return c

	case *Switch:
		c := clone(a, n)
		c.Subject, c.Default = Copy(n.Subject, a), Copy(n.Default, a)
		c.Cases = arena.MakeSlice[Case](a, len(n.Cases), len(n.Cases))

		for i, k := range n.Cases {
			c.Cases[i] = Case{Match: Copy(k.Match, a), Body: Copy(k.Body, a)}
		}

		return c

	case *Assign:
		c := clone(a, n)
		c.Target, c.Value = Copy(n.Target, a), Copy(n.Value, a)

		return c

	case *Block:
		c := clone(a, n)
		c.Items = copyNodes(n.Items, a)

		return c

	case *Export:
		c := clone(a, n)
		c.Value = Copy(n.Value, a)

		return c

	case *Suppress:
		c := clone(a, n)
		c.Operand = Copy(n.Operand, a)

		return c

	case *Return:
		c := clone(a, n)
		c.Value = Copy(n.Value, a)

		return c
	}

	panic("ast: copy of unknown node " + n.Kind().String())
}

func clone[T any](a *arena.Arena, n *T) *T {
	c := arena.Alloc[T](a)
	*c = *n

	return c
}

func copyNodes(ns []Node, a *arena.Arena) []Node {
	if ns == nil {
		return nil
	}

	out := arena.MakeSlice[Node](a, len(ns), len(ns))
	for i, n := range ns {
		out[i] = Copy(n, a)
	}

	return out
}

func copySymbols(ss []symbol.Symbol, a *arena.Arena) []symbol.Symbol {
	if ss == nil {
		return nil
	}

	out := arena.MakeSlice[symbol.Symbol](a, len(ss), len(ss))
	copy(out, ss)

	return out
}
