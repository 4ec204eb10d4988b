package lib

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ardnew/plet/lang/interp"
	"github.com/ardnew/plet/lang/module"
	"github.com/ardnew/plet/lang/parser"
	"github.com/ardnew/plet/lang/value"
)

// Contentmap defines functions for listing content files.
func Contentmap(env *value.Env) {
	env.DefineNative("list_content", listContent)
	env.DefineNative("save_content", saveContent)
}

type contentOptions struct {
	suffix    string
	recursive bool
}

// listContent returns an object for every file below a directory, in name
// order. Each object holds the path and name of the file, the fields of its
// front matter and its content converted by the CONTENT_HANDLERS entry for
// its extension.
func listContent(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgsBetween(1, 2, args) {
		return value.Nil{}
	}

	dir, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	opts := contentOptions{recursive: true}

	if len(args) > 1 {
		obj, ok := arg[*value.Object](1, value.KindObject, args, env)
		if !ok {
			return value.Nil{}
		}

		if v, found := obj.Field("recursive"); found {
			opts.recursive = value.Truthy(v)
		}

		if s, ok := field[value.String](obj, "suffix"); ok {
			opts.suffix = string(s)
		}
	}

	p, ok := srcPath(string(dir), env)
	if !ok {
		return value.Nil{}
	}

	out := value.NewArray(env.Arena, 0)
	findContent(p, opts, out, env)

	return out
}

func findContent(dir string, opts contentOptions, out *value.Array, env *value.Env) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		env.Warnf("unable to list %s: %s", dir, err)

		return
	}

	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		p := filepath.Join(dir, name)

		if e.IsDir() {
			if opts.recursive {
				findContent(p, opts, out, env)
			}

			continue
		}

		if strings.HasSuffix(name, opts.suffix) {
			out.Push(readContent(p, name, env))
		}
	}
}

// readContent builds the object describing one content file.
func readContent(p, name string, env *value.Env) *value.Object {
	obj := value.NewObject(env.Arena, 4)
	put(env, obj, "path", value.String(p))
	put(env, obj, "name", value.String(name))

	if c, ok := env.Session.Modules.(*module.Cache); ok {
		_, _ = c.LoadAsset(p)
	}

	src, err := module.ReadFile(p)
	if err != nil {
		env.Warnf("%s", err)

		return obj
	}

	front, body := parser.SplitFrontMatter(src, p, env.Session.Symbols)
	if front != nil {
		env.Session.ReportAll(front.Diags)

		if !front.Failed() && front.Root != nil {
			fenv := env.Child()
			fenv.File = p

			if fm, ok := interp.Interpret(front.Root, fenv).Value.(*value.Object); ok {
				for k, v := range fm.All() {
					obj.Put(k, v)
				}
			}
		}
	}

	var content value.Value = value.String(body)

	if handler, ok := contentHandler(name, env); ok {
		result, _ := interp.Apply(handler, []value.Value{content}, env)

		if fields, isObj := result.(*value.Object); isObj {
			for k, v := range fields.All() {
				obj.Put(k, v)
			}

			return obj
		}

		content = result
	}

	put(env, obj, "content", content)

	return obj
}

// contentHandler looks up the handler registered for the extension of name.
func contentHandler(name string, env *value.Env) (value.Value, bool) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return nil, false
	}

	v, _ := env.LookupName("CONTENT_HANDLERS")

	handlers, ok := v.(*value.Object)
	if !ok {
		return nil, false
	}

	fn, found := handlers.Get(value.String(ext))
	if !found || !isFunction(fn) {
		return nil, false
	}

	return fn, true
}

func saveContent(args []value.Value, env *value.Env) value.Value {
	env.CheckArgs(1, args)

	return value.Nil{}
}
