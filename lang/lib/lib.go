// Package lib implements the system modules of the standard library.
//
// Each module is a [module.SystemFunc] that defines its bindings in the env
// importing it. [Register] installs them all in a module cache, after which
// scripts reach them with import('name') and the site builder preloads them
// into script and template envs.
package lib

import (
	"github.com/ardnew/plet/lang/module"
	"github.com/ardnew/plet/lang/value"
)

// TemplateModules are preloaded into the env of every template.
var TemplateModules = []string{
	"core", "strings", "collections", "datetime", "contentmap",
	"template", "html", "images", "markdown",
}

// ScriptModules are loaded into the env of a build script on top of the
// cache's user env.
var ScriptModules = []string{"sitemap", "contentmap", "markdown"}

// Register adds every system module to c.
func Register(c *module.Cache) {
	c.Register("core", Core)
	c.Register("strings", Strings)
	c.Register("collections", Collections)
	c.Register("datetime", Datetime)
	c.Register("markdown", Markdown)
	c.Register("html", HTML)
	c.Register("template", Template)
	c.Register("contentmap", Contentmap)
	c.Register("sitemap", Sitemap)
	c.Register("exec", Exec)
	c.Register("images", Images)
}

// NewCache returns a module cache for s with the standard library
// registered.
func NewCache(s *value.Session) *module.Cache {
	c := module.NewCache(s)
	Register(c)

	return c
}

// cacheOf returns the module cache behind env, if the session has one.
func cacheOf(env *value.Env) (*module.Cache, bool) {
	c, ok := env.Session.Modules.(*module.Cache)
	if !ok {
		env.Errorf("no module cache in session")
	}

	return c, ok
}

// arg returns args[i] as a T or raises a type error naming kind.
func arg[T value.Value](i int, kind value.Kind, args []value.Value, env *value.Env) (T, bool) {
	v, ok := args[i].(T)
	if !ok {
		env.ArgTypeError(i, kind, args)
	}

	return v, ok
}

// optArg is like arg for an optional trailing argument. A missing argument
// yields def.
func optArg[T value.Value](i int, kind value.Kind, def T, args []value.Value, env *value.Env) (T, bool) {
	if i >= len(args) {
		return def, true
	}

	return arg[T](i, kind, args, env)
}

// argExpected raises a type error listing several acceptable types.
func argExpected(i int, want string, args []value.Value, env *value.Env) {
	env.ArgErrorf(i, "unexpected argument of type %s, %s expected", value.TypeName(args[i]), want)
}

func isFunction(v value.Value) bool {
	switch v.(type) {
	case *value.Native, *value.Closure:
		return true
	}

	return false
}

// functionArg checks that args[i] can be called.
func functionArg(i int, args []value.Value, env *value.Env) bool {
	if !isFunction(args[i]) {
		env.ArgTypeError(i, value.KindNative, args)

		return false
	}

	return true
}

// field returns the named field of obj when it has kind T.
func field[T value.Value](obj *value.Object, name string) (T, bool) {
	v, found := obj.Field(name)
	if !found {
		var zero T

		return zero, false
	}

	t, ok := v.(T)

	return t, ok
}

// defineExported binds name in env and marks it exported.
func defineExported(env *value.Env, name string, v value.Value) {
	sym := env.Session.Symbols.Intern(name)
	env.Define(sym, v)
	env.Export(sym)
}

// lookupObject returns the object bound to name, defining an empty one in
// env when the name is unbound.
func lookupObject(env *value.Env, name string) (*value.Object, bool) {
	v, found := env.LookupName(name)
	if !found {
		obj := value.NewObject(env.Arena, 0)
		env.DefineName(name, obj)

		return obj, true
	}

	obj, ok := v.(*value.Object)

	return obj, ok
}

// sym returns the Symbol value for name.
func sym(env *value.Env, name string) value.Symbol {
	return value.Symbol{Symbol: env.Session.Symbols.Intern(name)}
}

// put stores v under the symbol key name.
func put(env *value.Env, obj *value.Object, name string, v value.Value) {
	obj.Put(sym(env, name), v)
}

// setField replaces the field name of obj, keeping a string key if obj
// already uses one.
func setField(env *value.Env, obj *value.Object, name string, v value.Value) {
	if obj.Has(value.String(name)) {
		obj.Put(value.String(name), v)

		return
	}

	put(env, obj, name, v)
}
