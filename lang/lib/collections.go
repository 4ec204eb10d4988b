package lib

import (
	"cmp"
	"slices"
	"strings"

	"github.com/ardnew/plet/lang/interp"
	"github.com/ardnew/plet/lang/value"
)

// Collections defines functions over arrays and objects.
func Collections(env *value.Env) {
	env.DefineNative("length", length)
	env.DefineNative("keys", keys)
	env.DefineNative("values", values)
	env.DefineNative("map", mapValues)
	env.DefineNative("map_keys", mapKeys)
	env.DefineNative("filter", selector(true))
	env.DefineNative("exclude", selector(false))
	env.DefineNative("sort", sortValues)
	env.DefineNative("sort_by", sortBy)
	env.DefineNative("reverse", reverse)
}

func length(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	switch v := args[0].(type) {
	case *value.Array:
		return value.Int(v.Len())
	case *value.Object:
		return value.Int(v.Len())
	case value.String:
		return value.Int(len(v))
	}

	argExpected(0, "array|object|string", args, env)

	return value.Nil{}
}

func keys(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	obj, ok := arg[*value.Object](0, value.KindObject, args, env)
	if !ok {
		return value.Nil{}
	}

	out := value.NewArray(env.Arena, obj.Len())
	for k := range obj.All() {
		out.Push(k)
	}

	return out
}

func values(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	obj, ok := arg[*value.Object](0, value.KindObject, args, env)
	if !ok {
		return value.Nil{}
	}

	out := value.NewArray(env.Arena, obj.Len())
	for _, v := range obj.All() {
		out.Push(v)
	}

	return out
}

// failed marks a callback failure as belonging to the function argument.
func failed(env *value.Env) value.Value {
	if p := env.Pending(); p != nil {
		p.Arg = 1
	}

	return value.Nil{}
}

// mapValues applies f(value, key) to each element of an array or object.
func mapValues(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(2, args) || !functionArg(1, args, env) {
		return value.Nil{}
	}

	fn := args[1]

	switch src := args[0].(type) {
	case *value.Array:
		out := value.NewArray(env.Arena, src.Len())

		for i, item := range src.Items() {
			v, ok := interp.Apply(fn, []value.Value{item, value.Int(i)}, env)
			if !ok {
				return failed(env)
			}

			out.Push(v)
		}

		return out

	case *value.Object:
		out := value.NewObject(env.Arena, src.Len())

		for k, item := range src.All() {
			v, ok := interp.Apply(fn, []value.Value{item, k}, env)
			if !ok {
				return failed(env)
			}

			out.Put(k, v)
		}

		return out
	}

	argExpected(0, "array|object", args, env)

	return value.Nil{}
}

func mapKeys(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(2, args) || !functionArg(1, args, env) {
		return value.Nil{}
	}

	src, ok := arg[*value.Object](0, value.KindObject, args, env)
	if !ok {
		return value.Nil{}
	}

	out := value.NewObject(env.Arena, src.Len())

	for k, item := range src.All() {
		key, ok := interp.Apply(args[1], []value.Value{k}, env)
		if !ok {
			return failed(env)
		}

		out.Put(key, item)
	}

	return out
}

// selector returns filter when keep is true and exclude otherwise.
func selector(keep bool) value.NativeFunc {
	return func(args []value.Value, env *value.Env) value.Value {
		if !env.CheckArgs(2, args) || !functionArg(1, args, env) {
			return value.Nil{}
		}

		fn := args[1]

		switch src := args[0].(type) {
		case *value.Array:
			out := value.NewArray(env.Arena, 0)

			for i, item := range src.Items() {
				v, ok := interp.Apply(fn, []value.Value{item, value.Int(i)}, env)
				if !ok {
					return failed(env)
				}

				if value.Truthy(v) == keep {
					out.Push(item)
				}
			}

			return out

		case *value.Object:
			out := value.NewObject(env.Arena, 0)

			for k, item := range src.All() {
				v, ok := interp.Apply(fn, []value.Value{item, k}, env)
				if !ok {
					return failed(env)
				}

				if value.Truthy(v) == keep {
					out.Put(k, item)
				}
			}

			return out
		}

		argExpected(0, "array|object", args, env)

		return value.Nil{}
	}
}

// order compares values of different kinds by kind and values of the same
// kind by [value.Compare]. Values without an order compare equal.
func order(a, b value.Value) int {
	if c := cmp.Compare(a.Kind(), b.Kind()); c != 0 {
		return c
	}

	switch a := a.(type) {
	case value.Symbol:
		return strings.Compare(a.Name(), b.(value.Symbol).Name())
	}

	c, _ := value.Compare(a, b)

	return c
}

func sortValues(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	src, ok := arg[*value.Array](0, value.KindArray, args, env)
	if !ok {
		return value.Nil{}
	}

	items := slices.Clone(src.Items())
	slices.SortStableFunc(items, order)

	return value.ArrayOf(env.Arena, items...)
}

// sortBy orders an array by the key f(item) computed once per item.
func sortBy(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(2, args) || !functionArg(1, args, env) {
		return value.Nil{}
	}

	src, ok := arg[*value.Array](0, value.KindArray, args, env)
	if !ok {
		return value.Nil{}
	}

	type keyed struct{ key, item value.Value }

	pairs := make([]keyed, src.Len())

	for i, item := range src.Items() {
		key, ok := interp.Apply(args[1], []value.Value{item, value.Int(i)}, env)
		if !ok {
			return failed(env)
		}

		pairs[i] = keyed{key, item}
	}

	slices.SortStableFunc(pairs, func(a, b keyed) int { return order(a.key, b.key) })

	out := value.NewArray(env.Arena, len(pairs))
	for _, p := range pairs {
		out.Push(p.item)
	}

	return out
}

func reverse(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	switch src := args[0].(type) {
	case *value.Array:
		items := slices.Clone(src.Items())
		slices.Reverse(items)

		return value.ArrayOf(env.Arena, items...)
	case value.String:
		b := []byte(src)
		slices.Reverse(b)

		return value.String(b)
	}

	argExpected(0, "array|string", args, env)

	return value.Nil{}
}
