package value

import (
	"github.com/ardnew/plet/arena"
	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/symbol"
)

// NativeFunc is the calling convention of host functions. Errors are raised
// on env and the returned value is used regardless.
type NativeFunc func(args []Value, env *Env) Value

// Native is a function implemented in Go.
type Native struct {
	Fn   NativeFunc
	Name string
}

func (*Native) Kind() Kind { return KindNative }

// Binding is one captured variable of a closure.
type Binding struct {
	Value Value
	Sym   symbol.Symbol
}

// Closure is a function value created by a fn expression. Its body and
// parameters are copied out of the defining module, and the free variables
// bound at creation are captured by value. Arrays, objects and closures are
// handles, so a captured container sees later mutation. Names that were
// unbound at creation, such as the function's own name, resolve through Env.
type Closure struct {
	Env      *Env
	Body     ast.Node
	File     string
	Params   []symbol.Symbol
	Captured []Binding
}

func (*Closure) Kind() Kind { return KindClosure }

// NewClosure creates a closure for fn defined in env. The syntax tree is
// copied into the session arena once per fn node, so the closure outlives
// the module that defined it. The closure itself and its captured bindings
// are allocated from the arena of env.
func NewClosure(fn *ast.Fn, env *Env) *Closure {
	fc := env.Session.copyFn(fn)

	c := arena.Alloc[Closure](env.Arena)
	c.Env = env
	c.File = env.File
	c.Body = fc.body
	c.Params = fc.params
	c.Captured = arena.MakeSlice[Binding](env.Arena, 0, len(fn.Free))

	for _, sym := range fn.Free {
		if v, ok := env.Lookup(sym); ok {
			c.Captured = append(c.Captured, Binding{Sym: sym, Value: v})
		}
	}

	return c
}

type fnCopy struct {
	body   ast.Node
	params []symbol.Symbol
}

func (s *Session) copyFn(fn *ast.Fn) fnCopy {
	if fc, ok := s.fns[fn]; ok {
		return fc
	}

	fc := fnCopy{
		body:   ast.Copy(fn.Body, s.Arena),
		params: arena.MakeSlice[symbol.Symbol](s.Arena, len(fn.Params), len(fn.Params)),
	}
	copy(fc.params, fn.Params)

	if s.fns == nil {
		s.fns = make(map[*ast.Fn]fnCopy)
	}

	s.fns[fn] = fc

	return fc
}
