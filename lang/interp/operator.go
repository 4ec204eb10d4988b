package interp

import (
	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/value"
)

func evalSubscript(n *ast.Subscript, env *value.Env, quiet bool) Result {
	_, nilTarget := n.Target.(*ast.Suppress)

	target := Interpret(n.Target, env)
	if target.Kind != ResultValue {
		return target
	}

	index := Interpret(n.Index, env)
	if index.Kind != ResultValue {
		return index
	}

	if obj, isObj := target.Value.(*value.Object); isObj {
		v, _ := obj.Get(index.Value)

		return ok(v)
	}

	i, isInt := index.Value.(value.Int)

	switch t := target.Value.(type) {
	case *value.Array:
		if !isInt {
			break
		}

		if i < 0 || int(i) >= t.Len() {
			if !quiet {
				errorf(env, n.Index, "array index out of range: %d", i)
			}

			return nilResult
		}

		return ok(t.At(int(i)))

	case value.String:
		if !isInt {
			break
		}

		if i < 0 || int(i) >= len(t) {
			if !quiet {
				errorf(env, n.Index, "string index out of range: %d", i)
			}

			return nilResult
		}

		return ok(value.Int(t[i]))

	default:
		if !nilTarget || !value.IsNil(target.Value) {
			errorf(env, n.Target, "value of type %s is not indexable", value.TypeName(target.Value))
		}

		return nilResult
	}

	if !quiet {
		errorf(env, n.Index, "value of type %s is not a valid array index", value.TypeName(index.Value))
	}

	return nilResult
}

func evalDot(n *ast.Dot, env *value.Env, quiet bool) Result {
	_, nilTarget := n.Target.(*ast.Suppress)

	target := Interpret(n.Target, env)
	if target.Kind != ResultValue {
		return target
	}

	obj, isObj := target.Value.(*value.Object)
	if !isObj {
		if !nilTarget || !value.IsNil(target.Value) {
			errorf(env, n.Target, "value of type %s is not an object", value.TypeName(target.Value))
		}

		return nilResult
	}

	if v, found := obj.Field(n.Name.Name()); found {
		return ok(v)
	}

	if !quiet {
		errorf(env, n, "undefined object property: %s", n.Name)
	}

	return nilResult
}

func evalPrefix(n *ast.Prefix, env *value.Env) Result {
	r := Interpret(n.Operand, env)
	if r.Kind != ResultValue {
		return r
	}

	if n.Op == ast.OpNot {
		return ok(value.Bool(!value.Truthy(r.Value)))
	}

	switch v := r.Value.(type) {
	case value.Int:
		return ok(-v)
	case value.Float:
		return ok(-v)
	}

	errorf(env, n.Operand, "value of type %s is not a number", value.TypeName(r.Value))

	return nilResult
}

func evalInfix(n *ast.Infix, env *value.Env) Result {
	left := Interpret(n.Left, env)
	if left.Kind != ResultValue {
		return left
	}

	switch n.Op {
	case ast.OpAnd:
		if value.Truthy(left.Value) {
			return Interpret(n.Right, env)
		}

		return nilResult

	case ast.OpOr:
		if value.Truthy(left.Value) {
			return left
		}

		return Interpret(n.Right, env)
	}

	right := Interpret(n.Right, env)
	if right.Kind != ResultValue {
		return right
	}

	return ok(binary(n, n.Op, left.Value, right.Value, env))
}

// binary applies an arithmetic, comparison or equality operator.
func binary(n ast.Node, op ast.InfixOp, a, b value.Value, env *value.Env) value.Value {
	switch op {
	case ast.OpNone:
		return b

	case ast.OpAdd:
		return add(n, a, b, env)

	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return arith(n, op, a, b, env)

	case ast.OpEq:
		return value.Bool(value.Equals(a, b))

	case ast.OpNe:
		return value.Bool(!value.Equals(a, b))

	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		c, comparable := value.Compare(a, b)
		if !comparable {
			errorf(env, n, "'%s'-operator undefined for types %s and %s", op, value.TypeName(a), value.TypeName(b))

			return value.Nil{}
		}

		switch op {
		case ast.OpLt:
			return value.Bool(c < 0)
		case ast.OpLe:
			return value.Bool(c <= 0)
		case ast.OpGt:
			return value.Bool(c > 0)
		default:
			return value.Bool(c >= 0)
		}
	}

	return value.Nil{}
}

func add(n ast.Node, a, b value.Value, env *value.Env) value.Value {
	_, sa := a.(value.String)
	_, sb := b.(value.String)

	if sa || sb {
		return value.String(value.ToString(a) + value.ToString(b))
	}

	switch a := a.(type) {
	case *value.Array:
		if b, isArr := b.(*value.Array); isArr {
			return a.Concat(env.Arena, b)
		}
	case *value.Object:
		if b, isObj := b.(*value.Object); isObj {
			return a.Merge(env.Arena, b)
		}
	}

	if v, numeric := arithNumbers(ast.OpAdd, a, b); numeric {
		return v
	}

	errorf(env, n, "'+'-operator undefined for types %s and %s", value.TypeName(a), value.TypeName(b))

	return value.Nil{}
}

func arith(n ast.Node, op ast.InfixOp, a, b value.Value, env *value.Env) value.Value {
	if op == ast.OpDiv || op == ast.OpMod {
		if _, isInt := a.(value.Int); isInt && b == value.Value(value.Int(0)) {
			errorf(env, n, "division by zero")

			return value.Nil{}
		}
	}

	if op == ast.OpMod {
		x, xi := a.(value.Int)
		y, yi := b.(value.Int)

		if xi && yi {
			return x % y
		}
	} else if v, numeric := arithNumbers(op, a, b); numeric {
		return v
	}

	errorf(env, n, "'%s'-operator undefined for types %s and %s", op, value.TypeName(a), value.TypeName(b))

	return value.Nil{}
}

// arithNumbers applies + - * / to two numbers. An Int combined with a
// Float is promoted to Float.
func arithNumbers(op ast.InfixOp, a, b value.Value) (value.Value, bool) {
	x, xi := a.(value.Int)
	y, yi := b.(value.Int)

	if xi && yi {
		switch op {
		case ast.OpAdd:
			return x + y, true
		case ast.OpSub:
			return x - y, true
		case ast.OpMul:
			return x * y, true
		case ast.OpDiv:
			return x / y, true
		}

		return nil, false
	}

	f, fok := toFloat(a)
	g, gok := toFloat(b)

	if !fok || !gok {
		return nil, false
	}

	switch op {
	case ast.OpAdd:
		return f + g, true
	case ast.OpSub:
		return f - g, true
	case ast.OpMul:
		return f * g, true
	case ast.OpDiv:
		return f / g, true
	}

	return nil, false
}

func toFloat(v value.Value) (value.Float, bool) {
	switch v := v.(type) {
	case value.Int:
		return value.Float(v), true
	case value.Float:
		return v, true
	}

	return 0, false
}
