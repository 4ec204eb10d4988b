package interp

import (
	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/value"
)

func evalApply(n *ast.Apply, env *value.Env) Result {
	var callee value.Value

	if name, isName := n.Callee.(*ast.Name); isName {
		v, found := env.Lookup(name.Sym)
		if !found {
			errorf(env, name, "undefined function: %s", name.Sym)

			return nilResult
		}

		callee = v
	} else {
		r := Interpret(n.Callee, env)
		if r.Kind != ResultValue {
			return r
		}

		callee = r.Value
	}

	args := make([]value.Value, len(n.Args))

	for i, a := range n.Args {
		r := Interpret(a, env)
		if r.Kind != ResultValue {
			return r
		}

		args[i] = r.Value
	}

	switch fn := callee.(type) {
	case *value.Native:
		env.ClearError()

		v := fn.Fn(args, env)

		if p := env.Pending(); p != nil {
			var at ast.Node = n
			if p.Arg >= 0 && p.Arg < len(n.Args) {
				at = n.Args[p.Arg]
			}

			report(env, at, p.Severity, "%s", p.Message)
			env.ClearError()
		}

		return ok(orNil(v))

	case *value.Closure:
		return ok(call(fn, args, env))
	}

	if _, suppressed := n.Callee.(*ast.Suppress); !suppressed || !value.IsNil(callee) {
		errorf(env, n.Callee, "value of type %s is not a function", value.TypeName(callee))
	}

	return nilResult
}

// call runs a closure body in a fresh scope nested in its defining env.
// Values created by the call are allocated from the caller's arena.
func call(fn *value.Closure, args []value.Value, caller *value.Env) value.Value {
	env := fn.Env.ChildIn(caller.Arena)
	env.File = fn.File

	for _, b := range fn.Captured {
		env.Define(b.Sym, b.Value)
	}

	for i, p := range fn.Params {
		if i < len(args) {
			env.Define(p, args[i])
		} else {
			env.Define(p, value.Nil{})
		}
	}

	return orNil(Interpret(fn.Body, env).Value)
}

// Apply calls a native or closure on behalf of library code. It reports
// false when the call failed: a native left an error pending on env, or a
// closure body reported an error. A native's pending error stays on env so
// it is reported at the library function's own call site.
func Apply(fn value.Value, args []value.Value, env *value.Env) (value.Value, bool) {
	switch fn := fn.(type) {
	case *value.Native:
		env.ClearError()

		v := fn.Fn(args, env)

		return orNil(v), !env.Failed()

	case *value.Closure:
		before := env.Session.ErrorCount()
		v := call(fn, args, env)

		return v, env.Session.ErrorCount() == before
	}

	env.Errorf("value of type %s is not a function", value.TypeName(fn))

	return value.Nil{}, false
}

func orNil(v value.Value) value.Value {
	if v == nil {
		return value.Nil{}
	}

	return v
}
