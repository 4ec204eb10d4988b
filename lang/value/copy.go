package value

import (
	"github.com/ardnew/plet/arena"
	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/symbol"
)

// Copy returns a deep copy of v whose containers are allocated from a.
// Shared and cyclic structure is preserved: each array, object and closure
// is copied once.
func Copy(v Value, a *arena.Arena) Value {
	return copyValue(v, a, make(map[Value]Value))
}

func copyValue(v Value, a *arena.Arena, seen map[Value]Value) Value {
	switch v := v.(type) {
	case nil:
		return Nil{}

	case *Array:
		if c, ok := seen[v]; ok {
			return c
		}

		c := NewArray(a, v.Len())
		seen[v] = c

		for _, item := range v.items {
			c.Push(copyValue(item, a, seen))
		}

		return c

	case *Object:
		if c, ok := seen[v]; ok {
			return c
		}

		c := NewObject(a, v.Len())
		seen[v] = c

		for i := range v.keys {
			c.Put(copyValue(v.keys[i], a, seen), copyValue(v.values[i], a, seen))
		}

		return c

	case *Closure:
		if c, ok := seen[v]; ok {
			return c
		}

		c := arena.Alloc[Closure](a)
		seen[v] = c

		c.Env = v.Env
		c.File = v.File
		c.Body = ast.Copy(v.Body, a)
		c.Params = arena.MakeSlice[symbol.Symbol](a, len(v.Params), len(v.Params))
		copy(c.Params, v.Params)

		c.Captured = arena.MakeSlice[Binding](a, len(v.Captured), len(v.Captured))
		for i, b := range v.Captured {
			c.Captured[i] = Binding{Sym: b.Sym, Value: copyValue(b.Value, a, seen)}
		}

		return c

	default:
		// Scalars and natives are immutable.
		return v
	}
}
