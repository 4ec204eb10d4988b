package lib

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ardnew/plet/lang/value"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// Markdown defines markdown() and registers it as the content handler for
// .md files.
func Markdown(env *value.Env) {
	fn := &value.Native{Name: "markdown", Fn: markdown}
	env.DefineName("markdown", fn)

	if handlers, ok := lookupObject(env, "CONTENT_HANDLERS"); ok {
		handlers.Put(value.String("md"), fn)
	}
}

func markdown(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	src, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &buf); err != nil {
		env.Errorf("markdown error: %s", err)

		return src
	}

	return value.String(buf.String())
}
