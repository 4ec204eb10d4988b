package interp

import (
	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/symbol"
	"github.com/ardnew/plet/lang/value"
)

// loop runs the body of a for loop once per element produced by each.
// Loop variables are bound in env itself.
type loop struct {
	n   *ast.For
	env *value.Env
	out output
	end Result
}

// step binds the loop variables and runs the body. It reports whether the
// loop should go on.
func (l *loop) step(key, val value.Value) bool {
	if !l.n.Key.IsZero() {
		l.env.Define(l.n.Key, key)
	}

	l.env.Define(l.n.Value, val)

	l.env.Loops++
	r := Interpret(l.n.Body, l.env)
	l.env.Loops--

	l.end = r

	if r.Kind != ResultReturn {
		l.out.add(r.Value)
	}

	if r.Kind == ResultContinue && r.Level <= 1 {
		return true
	}

	return r.Kind == ResultValue
}

func (l *loop) result() Result {
	switch r := l.end; {
	case r.Kind == ResultReturn:
		return r
	case (r.Kind == ResultBreak || r.Kind == ResultContinue) && r.Level > 1:
		r.Value = l.out.String()
		r.Level--

		return r
	}

	return ok(l.out.String())
}

func evalFor(n *ast.For, env *value.Env) Result {
	r := Interpret(n.Collection, env)
	if r.Kind != ResultValue {
		return r
	}

	l := &loop{n: n, env: env}

	switch c := r.Value.(type) {
	case *value.Array:
		if c.Len() == 0 {
			break
		}

		for i := 0; i < c.Len(); i++ {
			if !l.step(value.Int(i), c.At(i)) {
				break
			}
		}

		return l.result()

	case *value.Object:
		if c.Len() == 0 {
			break
		}

		for i := 0; i < c.Len(); i++ {
			if !l.step(c.KeyAt(i), c.ValueAt(i)) {
				break
			}
		}

		return l.result()

	case value.String:
		if len(c) == 0 {
			break
		}

		for i := range len(c) {
			if !l.step(value.Int(i), value.Int(c[i])) {
				break
			}
		}

		return l.result()

	default:
		errorf(env, n.Collection, "value of type %s is not iterable", value.TypeName(r.Value))
	}

	return Interpret(n.Else, env)
}

func evalSwitch(n *ast.Switch, env *value.Env) Result {
	subject := Interpret(n.Subject, env)
	if subject.Kind != ResultValue {
		return subject
	}

	for _, c := range n.Cases {
		m := Interpret(c.Match, env)
		if m.Kind != ResultValue {
			return m
		}

		if value.Equals(subject.Value, m.Value) {
			return Interpret(c.Body, env)
		}
	}

	return Interpret(n.Default, env)
}

func evalAssign(n *ast.Assign, env *value.Env) Result {
	r := Interpret(n.Value, env)
	if r.Kind != ResultValue {
		return r
	}

	v := r.Value

	switch target := n.Target.(type) {
	case *ast.Name:
		if n.Op != ast.OpNone {
			existing, found := env.Lookup(target.Sym)
			if !found {
				errorf(env, target, "undefined variable: %s", target.Sym)

				return nilResult
			}

			v = binary(n, n.Op, existing, v, env)
		}

		env.Define(target.Sym, v)

	case *ast.Subscript:
		t := Interpret(target.Target, env)
		if t.Kind != ResultValue {
			return t
		}

		index := Interpret(target.Index, env)
		if index.Kind != ResultValue {
			return index
		}

		switch c := t.Value.(type) {
		case *value.Object:
			if n.Op != ast.OpNone {
				existing, found := c.Get(index.Value)
				if !found {
					errorf(env, target, "undefined object property")

					return nilResult
				}

				v = binary(n, n.Op, existing, v, env)
			}

			c.Put(index.Value, v)

		case *value.Array:
			i, isInt := index.Value.(value.Int)

			switch {
			case !isInt:
				errorf(env, target.Index, "value of type %s is not a valid array index", value.TypeName(index.Value))
			case i < 0 || int(i) >= c.Len():
				errorf(env, target.Index, "array index out of range: %d", i)
			default:
				if n.Op != ast.OpNone {
					v = binary(n, n.Op, c.At(int(i)), v, env)
				}

				c.Set(int(i), v)
			}

		default:
			errorf(env, target.Target, "value of type %s is not indexable", value.TypeName(t.Value))
		}

	case *ast.Dot:
		t := Interpret(target.Target, env)
		if t.Kind != ResultValue {
			return t
		}

		obj, isObj := t.Value.(*value.Object)
		if !isObj {
			errorf(env, target.Target, "value of type %s is not an object", value.TypeName(t.Value))

			return nilResult
		}

		key := fieldKey(obj, target.Name)

		if n.Op != ast.OpNone {
			existing, found := obj.Get(key)
			if !found {
				errorf(env, target, "undefined object property: %s", target.Name)

				return nilResult
			}

			v = binary(n, n.Op, existing, v, env)
		}

		obj.Put(key, v)

	default:
		errorf(env, n.Target, "left side of assignment is invalid")
	}

	return nilResult
}

// fieldKey returns the key a dot assignment writes: an existing String key
// with the same text is reused, otherwise the Symbol.
func fieldKey(obj *value.Object, name symbol.Symbol) value.Value {
	sym := value.Symbol{Symbol: name}
	if obj.Has(sym) {
		return sym
	}

	if s := value.String(name.Name()); obj.Has(s) {
		return s
	}

	return sym
}

func evalExport(n *ast.Export, env *value.Env) Result {
	if n.Value != nil {
		r := Interpret(n.Value, env)
		if r.Kind != ResultValue {
			return r
		}

		env.Define(n.Name, r.Value)
	} else if _, bound := env.Local(n.Name); !bound {
		v, found := env.Lookup(n.Name)
		if !found {
			errorf(env, n, "undefined variable: %s", n.Name)
		}

		env.Define(n.Name, v)
	}

	env.Export(n.Name)

	return nilResult
}
