// Package interp evaluates syntax trees produced by the parser.
//
// Evaluation never aborts. Every runtime error is reported to the session
// with its position and the offending expression evaluates to Nil, so one
// bad expression in a template degrades only its own output.
package interp

import (
	"strings"

	"github.com/ardnew/plet/lang"
	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/value"
)

// ResultKind says how evaluation of a node completed.
type ResultKind uint8

const (
	ResultValue ResultKind = iota
	ResultReturn
	ResultBreak
	ResultContinue
)

// Result is the outcome of interpreting one node. Level counts the loops
// still to be exited by a break or continue.
type Result struct {
	Value value.Value
	Level int64
	Kind  ResultKind
}

func ok(v value.Value) Result { return Result{Value: v} }

var nilResult = ok(value.Nil{})

// Interpret evaluates node in env.
func Interpret(node ast.Node, env *value.Env) Result {
	switch n := node.(type) {
	case nil:
		return nilResult

	case *ast.Name:
		v, found := env.Lookup(n.Sym)
		if !found {
			errorf(env, n, "undefined variable: %s", n.Sym)
		}

		return ok(v)

	case *ast.Int:
		return ok(value.Int(n.Value))

	case *ast.Float:
		return ok(value.Float(n.Value))

	case *ast.String:
		return ok(value.String(n.Value))

	case *ast.List:
		arr := value.NewArray(env.Arena, len(n.Items))

		for _, item := range n.Items {
			r := Interpret(item, env)
			if r.Kind != ResultValue {
				return r
			}

			arr.Push(r.Value)
		}

		return ok(arr)

	case *ast.Object:
		obj := value.NewObject(env.Arena, len(n.Props))

		for _, p := range n.Props {
			var key value.Value

			if name, isName := p.Key.(*ast.Name); isName {
				key = value.Symbol{Symbol: name.Sym}
			} else {
				r := Interpret(p.Key, env)
				if r.Kind != ResultValue {
					return r
				}

				key = r.Value
			}

			r := Interpret(p.Value, env)
			if r.Kind != ResultValue {
				return r
			}

			obj.Put(key, r.Value)
		}

		return ok(obj)

	case *ast.Apply:
		return evalApply(n, env)

	case *ast.Subscript:
		return evalSubscript(n, env, false)

	case *ast.Dot:
		return evalDot(n, env, false)

	case *ast.Prefix:
		return evalPrefix(n, env)

	case *ast.Infix:
		return evalInfix(n, env)

	case *ast.Fn:
		return ok(value.NewClosure(n, env))

	case *ast.If:
		cond := Interpret(n.Cond, env)
		if cond.Kind != ResultValue {
			return cond
		}

		if value.Truthy(cond.Value) {
			return Interpret(n.Then, env)
		}

		return Interpret(n.Else, env)

	case *ast.For:
		return evalFor(n, env)

	case *ast.Switch:
		return evalSwitch(n, env)

	case *ast.Assign:
		return evalAssign(n, env)

	case *ast.Export:
		return evalExport(n, env)

	case *ast.Block:
		return evalBlock(n, env)

	case *ast.Suppress:
		switch operand := n.Operand.(type) {
		case *ast.Name:
			v, _ := env.Lookup(operand.Sym)

			return ok(v)
		case *ast.Subscript:
			return evalSubscript(operand, env, true)
		case *ast.Dot:
			return evalDot(operand, env, true)
		default:
			return Interpret(operand, env)
		}

	case *ast.Return:
		r := Interpret(n.Value, env)
		if r.Kind != ResultValue {
			return r
		}

		return Result{Kind: ResultReturn, Value: r.Value}

	case *ast.Break:
		return jump(n, n.Level, ResultBreak, "break", env)

	case *ast.Continue:
		return jump(n, n.Level, ResultContinue, "continue", env)
	}

	errorf(env, node, "cannot evaluate %s", node.Kind())

	return nilResult
}

func jump(n ast.Node, level int64, kind ResultKind, word string, env *value.Env) Result {
	loops := int64(env.Loops)

	if loops == 0 {
		errorf(env, n, "unexpected %s outside of loop", word)

		return nilResult
	}

	if level < 1 || level > loops {
		errorf(env, n, "invalid numeric argument for %s, expected an integer between 1 and %d", word, loops)
		level = min(max(level, 1), loops)
	}

	return Result{Kind: kind, Value: value.Nil{}, Level: level}
}

// output accumulates the values of a block or loop body.
type output struct {
	sb    strings.Builder
	first value.Value
	count int
}

func (o *output) add(v value.Value) {
	if value.IsNil(v) {
		return
	}

	if o.count == 0 {
		o.first = v
	}

	o.count++
	value.WriteString(&o.sb, v)
}

func (o *output) String() value.Value { return value.String(o.sb.String()) }

// Value returns the single non-nil value when there was exactly one,
// otherwise the concatenated text. No output at all is Nil.
func (o *output) Value() value.Value {
	switch o.count {
	case 0:
		return value.Nil{}
	case 1:
		return o.first
	default:
		return o.String()
	}
}

func evalBlock(n *ast.Block, env *value.Env) Result {
	var out output

	for _, item := range n.Items {
		r := Interpret(item, env)

		switch r.Kind {
		case ResultValue:
			out.add(r.Value)

			continue
		case ResultReturn:
			return r
		}

		out.add(r.Value)
		r.Value = out.String()

		return r
	}

	if n.Quote {
		return ok(out.String())
	}

	return ok(out.Value())
}

func errorf(env *value.Env, n ast.Node, format string, args ...any) {
	report(env, n, lang.SeverityError, format, args...)
}

func report(env *value.Env, n ast.Node, sev lang.Severity, format string, args ...any) {
	var span ast.Span
	if n != nil {
		span = n.Bounds()
	}

	env.Session.Reportf(sev, env.File, span.Start, span.End, format, args...)
}
