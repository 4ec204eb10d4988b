package lib

import (
	"github.com/expr-lang/expr"

	"github.com/ardnew/plet/lang"
	"github.com/ardnew/plet/lang/value"
)

// Core defines the constants and basic functions every env starts with.
func Core(env *value.Env) {
	env.DefineName("nil", value.Nil{})
	env.DefineName("null", value.Nil{})
	env.DefineName("false", value.Nil{})
	env.DefineName("true", value.True{})
	env.DefineNative("import", importModule)
	env.DefineNative("copy", copyValue)
	env.DefineNative("type", typeOf)
	env.DefineNative("string", toString)
	env.DefineNative("bool", toBool)
	env.DefineNative("error", raiseError)
	env.DefineNative("warning", raiseWarning)
	env.DefineNative("info", raiseInfo)
	env.DefineNative("expr", evalExpr)
}

func importModule(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	name, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	if env.Session.Modules == nil {
		env.Errorf("unable to load module")

		return value.Nil{}
	}

	return env.Session.Modules.Import(string(name), env)
}

func copyValue(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	return value.Copy(args[0], env.Arena)
}

func typeOf(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	return value.String(value.TypeName(args[0]))
}

func toString(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	return value.String(value.ToString(args[0]))
}

func toBool(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	return value.Bool(value.Truthy(args[0]))
}

func message(args []value.Value, env *value.Env) (string, bool) {
	if !env.CheckArgs(1, args) {
		return "", false
	}

	s, ok := arg[value.String](0, value.KindString, args, env)

	return string(s), ok
}

func raiseError(args []value.Value, env *value.Env) value.Value {
	if msg, ok := message(args, env); ok {
		env.Errorf("%s", msg)
	}

	return value.Nil{}
}

func raiseWarning(args []value.Value, env *value.Env) value.Value {
	if msg, ok := message(args, env); ok {
		env.Warnf("%s", msg)
	}

	return value.Nil{}
}

func raiseInfo(args []value.Value, env *value.Env) value.Value {
	if msg, ok := message(args, env); ok {
		env.Infof("%s", msg)
	}

	return value.Nil{}
}

// evalExpr evaluates a host expression with expr-lang. The optional object
// argument supplies its variables.
func evalExpr(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgsBetween(1, 2, args) {
		return value.Nil{}
	}

	src, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	vars := map[string]any{}

	if len(args) > 1 {
		obj, ok := arg[*value.Object](1, value.KindObject, args, env)
		if !ok {
			return value.Nil{}
		}

		vars, _ = value.ToGo(obj).(map[string]any)
	}

	program, err := expr.Compile(string(src), expr.Env(vars))
	if err != nil {
		env.ArgErrorf(0, "%s", lang.ErrExprCompile.Wrap(err))

		return value.Nil{}
	}

	out, err := expr.Run(program, vars)
	if err != nil {
		env.Errorf("%s", lang.ErrExprEvaluate.Wrap(err))

		return value.Nil{}
	}

	return value.FromGo(out, env.Arena)
}
