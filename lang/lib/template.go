package lib

import (
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ardnew/plet/arena"
	"github.com/ardnew/plet/lang/interp"
	"github.com/ardnew/plet/lang/module"
	"github.com/ardnew/plet/lang/value"
)

// maxPages bounds the page numbers page_list will produce.
const maxPages = 0xFFFF

// Template defines the functions templates use to embed other templates
// and link between pages.
func Template(env *value.Env) {
	env.DefineNative("embed", embed)
	env.DefineNative("link", linkFn(false))
	env.DefineNative("url", linkFn(true))
	env.DefineNative("is_current", isCurrentFn)
	env.DefineNative("read", read)
	env.DefineNative("asset_link", assetLink)
	env.DefineNative("page_list", pageList)
	env.DefineNative("page_link", pageLink)
}

// NewTemplateEnv returns a root env for rendering one page. It preloads the
// template modules, then binds the symbol keys of data and the names
// exported by the build script env. Bound values are copied into a.
func NewTemplateEnv(c *module.Cache, data value.Value, script *value.Env, a *arena.Arena) *value.Env {
	env := value.NewEnv(c.Session(), a)

	if err := c.ImportSystem(env, TemplateModules...); err != nil {
		c.Session().Log.Warn("template env incomplete", slog.Any("error", err))
	}

	if obj, ok := data.(*value.Object); ok {
		for k, v := range obj.All() {
			if s, ok := k.(value.Symbol); ok {
				env.Define(s.Symbol, value.Copy(v, a))
			}
		}
	}

	if script != nil {
		for s, v := range script.Exports() {
			env.Define(s, value.Copy(v, a))
		}
	}

	return env
}

// EvalTemplate renders the template module m in env. FILE and DIR are bound
// to the template's location. When the template leaves LAYOUT bound to a
// string, its output is bound to CONTENT and the layout, resolved relative
// to DIR, is rendered in the same env.
func EvalTemplate(c *module.Cache, m *module.Module, env *value.Env) value.Value {
	for range maxLayoutDepth {
		env.File = m.Name
		env.DefineName("FILE", value.String(m.Name))
		env.DefineName("DIR", value.String(filepath.Dir(m.Name)))

		content := interp.Interpret(m.Syntax.Root, env).Value
		if content == nil {
			content = value.Nil{}
		}

		layout, _ := env.LookupName("LAYOUT")

		name, ok := layout.(value.String)
		if !ok {
			return content
		}

		env.DefineName("CONTENT", content)
		env.DefineName("LAYOUT", value.Nil{})

		next, err := c.LoadTemplate(filepath.Join(filepath.Dir(m.Name), string(name)))
		if err != nil {
			c.Session().Log.Error("unable to load layout",
				slog.String("file", m.Name), slog.Any("error", err))

			return content
		}

		m = next
	}

	c.Session().Log.Error("layout chain too deep", slog.String("file", m.Name))

	return value.Nil{}
}

const maxLayoutDepth = 64

// embed renders another template in a child scope. LAYOUT is cleared so the
// embedded template does not inherit the page layout.
func embed(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgsBetween(1, 2, args) {
		return value.Nil{}
	}

	name, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	data, ok := optArg[value.Value](1, value.KindObject, value.Nil{}, args, env)
	if !ok {
		return value.Nil{}
	}

	if _, isObj := data.(*value.Object); !isObj && len(args) > 1 {
		env.ArgTypeError(1, value.KindObject, args)

		return value.Nil{}
	}

	c, ok := cacheOf(env)
	if !ok {
		return value.Nil{}
	}

	p, ok := srcPath(string(name), env)
	if !ok {
		return value.Nil{}
	}

	m, err := c.LoadTemplate(p)
	if err != nil {
		env.Errorf("unable to load template: %s", err)

		return value.Nil{}
	}

	child := env.Child()
	child.DefineName("LAYOUT", value.Nil{})

	if obj, ok := data.(*value.Object); ok {
		for k, v := range obj.All() {
			if s, ok := k.(value.Symbol); ok {
				child.Define(s.Symbol, v)
			}
		}
	}

	before := env.Session.ErrorCount()
	out := EvalTemplate(c, m, child)

	if env.Session.ErrorCount() != before {
		env.Errorf("errors in template %s", m.Name)
	}

	return out
}

func linkFn(absolute bool) value.NativeFunc {
	return func(args []value.Value, env *value.Env) value.Value {
		if !env.CheckArgsBetween(0, 1, args) {
			return value.Nil{}
		}

		p, ok := pathOrCurrent(args, env)
		if !ok {
			return value.Nil{}
		}

		return value.String(link(p, absolute, env))
	}
}

func isCurrentFn(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	p, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	return value.Bool(isCurrent(string(p), env))
}

// read returns the content of a file relative to DIR. The file is tracked
// as an asset so changes to it are detected.
func read(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	name, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	p, ok := srcPath(string(name), env)
	if !ok {
		return value.Nil{}
	}

	if c, ok := env.Session.Modules.(*module.Cache); ok {
		if _, err := c.LoadAsset(p); err != nil {
			env.Errorf("error reading file: %s", err)

			return value.Nil{}
		}
	}

	data, err := module.ReadFile(p)
	if err != nil {
		env.Errorf("error reading file: %s", err)

		return value.Nil{}
	}

	return value.String(data)
}

// assetLink copies a file relative to DIR to the same path in DIST_ROOT and
// returns its link.
func assetLink(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	name, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	src, ok := srcPath(string(name), env)
	if !ok {
		return value.Nil{}
	}

	dest, ok := distPath(string(name), env)
	if !ok {
		return value.Nil{}
	}

	if c, ok := env.Session.Modules.(*module.Cache); ok {
		_, _ = c.LoadAsset(src)
	}

	if err := CopyChanged(src, dest); err != nil {
		env.Errorf("unable to copy asset: %s", err)
	}

	return value.String(link(string(name), false, env))
}

// pageObject returns PAGE, raising an error when it is missing.
func pageObject(env *value.Env) (*value.Object, bool) {
	v, _ := env.LookupName("PAGE")

	obj, ok := v.(*value.Object)
	if !ok {
		env.Errorf("PAGE is not set or not an object")
	}

	return obj, ok
}

// intField reads an int argument at i, or the named field of PAGE.
func intField(i int, name string, args []value.Value, env *value.Env) (int64, bool) {
	if i < len(args) {
		n, ok := arg[value.Int](i, value.KindInt, args, env)

		return int64(n), ok
	}

	page, ok := pageObject(env)
	if !ok {
		return 0, false
	}

	n, ok := field[value.Int](page, name)
	if !ok {
		env.Errorf("PAGE.%s is not set or not an integer", name)
	}

	return int64(n), ok
}

// pageList returns the page numbers 1 through PAGE.pages. The second and
// third arguments override the current page and the page count.
//
// TODO: limit the list to n pages around the current page.
func pageList(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgsBetween(1, 3, args) {
		return value.Nil{}
	}

	if _, ok := arg[value.Int](0, value.KindInt, args, env); !ok {
		return value.Nil{}
	}

	if _, ok := intField(1, "page", args, env); !ok {
		return value.Nil{}
	}

	pages, ok := intField(2, "pages", args, env)
	if !ok {
		return value.Nil{}
	}

	if pages > maxPages {
		env.Errorf("too many pages")

		return value.Nil{}
	}

	out := value.NewArray(env.Arena, int(max(pages, 0)))
	for i := int64(1); i <= pages; i++ {
		out.Push(value.Int(i))
	}

	return out
}

// PageName returns the text that replaces %page% for page n.
func PageName(n int64) string {
	if n == 1 {
		return ""
	}

	return "/page" + strconv.FormatInt(n, 10)
}

// PagePath substitutes the page name of n into a path template.
func PagePath(template string, n int64) string {
	return strings.Replace(template, "%page%", PageName(n), 1)
}

// pageLink links page n of the current pagination, or of the path template
// given as the second argument.
func pageLink(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgsBetween(1, 2, args) {
		return value.Nil{}
	}

	n, ok := arg[value.Int](0, value.KindInt, args, env)
	if !ok {
		return value.Nil{}
	}

	var template string

	if len(args) > 1 {
		s, ok := arg[value.String](1, value.KindString, args, env)
		if !ok {
			return value.Nil{}
		}

		template = string(s)
	} else {
		page, ok := pageObject(env)
		if !ok {
			return value.Nil{}
		}

		s, ok := field[value.String](page, "path_template")
		if !ok {
			env.Errorf("PAGE.path_template is not set or not a string")

			return value.Nil{}
		}

		template = string(s)
	}

	return value.String(link(PagePath(template, int64(n)), false, env))
}
