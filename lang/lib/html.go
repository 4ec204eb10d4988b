package lib

import (
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ardnew/plet/lang/value"
)

// HTML defines functions for escaping, building and rewriting HTML.
//
// An HTML node is an object {tag, attributes, children, self_closing} with
// a symbol tag, an object of string attributes and an array of child nodes
// and strings. A fragment is a node without a tag.
func HTML(env *value.Env) {
	env.DefineNative("h", escapeHTML)
	env.DefineNative("href", href)
	env.DefineNative("html", renderHTML)
	env.DefineNative("no_title", noTitle)
	env.DefineNative("links", rewriteLinks(false))
	env.DefineNative("urls", rewriteLinks(true))
	env.DefineNative("parse_html", parseHTML)
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&#39;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeHTML escapes the five characters that are special in HTML text
// and attribute values.
func EscapeHTML(s string) string { return htmlEscaper.Replace(s) }

func escapeHTML(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	switch v := args[0].(type) {
	case value.String:
		return value.String(EscapeHTML(string(v)))
	case value.Symbol:
		return value.String(EscapeHTML(v.Name()))
	}

	return value.String(value.ToString(args[0]))
}

// href renders an href attribute for a site path, adding the class
// "current" when the path is the page being rendered.
func href(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgsBetween(0, 2, args) {
		return value.Nil{}
	}

	p, ok := pathOrCurrent(args, env)
	if !ok {
		return value.Nil{}
	}

	class, ok := optArg(1, value.KindString, value.String(""), args, env)
	if !ok {
		return value.Nil{}
	}

	p = TrimIndex(p)

	if isCurrent(p, env) {
		if class != "" {
			class += " current"
		} else {
			class = "current"
		}
	}

	var sb strings.Builder

	sb.WriteString(` href="`)
	sb.WriteString(EscapeHTML(link(p, false, env)))
	sb.WriteByte('"')

	if class != "" {
		sb.WriteString(` class="`)
		sb.WriteString(EscapeHTML(string(class)))
		sb.WriteByte('"')
	}

	return value.String(sb.String())
}

// pathOrCurrent returns the string argument 0, or PATH when there is none.
func pathOrCurrent(args []value.Value, env *value.Env) (string, bool) {
	if len(args) > 0 {
		s, ok := arg[value.String](0, value.KindString, args, env)

		return string(s), ok
	}

	v, _ := env.LookupName("PATH")
	if s, ok := v.(value.String); ok {
		return string(s), true
	}

	env.Errorf("PATH is not set or not a string")

	return "", false
}

func renderHTML(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	var sb strings.Builder
	WriteHTML(&sb, args[0])

	return value.String(sb.String())
}

func nameOf(v value.Value) (string, bool) {
	switch v := v.(type) {
	case value.Symbol:
		return v.Name(), true
	case value.String:
		return string(v), true
	}

	return "", false
}

// WriteHTML renders a node tree. Strings are escaped and other values are
// skipped.
func WriteHTML(sb *strings.Builder, node value.Value) {
	switch node := node.(type) {
	case value.String:
		sb.WriteString(EscapeHTML(string(node)))

	case *value.Object:
		tagValue, _ := node.Field("tag")
		tag, hasTag := nameOf(tagValue)

		if hasTag {
			sb.WriteByte('<')
			sb.WriteString(tag)

			if attrs, ok := field[*value.Object](node, "attributes"); ok {
				for k, v := range attrs.All() {
					name, ok := nameOf(k)
					val, isStr := v.(value.String)

					if !ok || !isStr {
						continue
					}

					sb.WriteByte(' ')
					sb.WriteString(name)

					if val != "" {
						sb.WriteString(`="`)
						sb.WriteString(EscapeHTML(string(val)))
						sb.WriteByte('"')
					}
				}
			}

			sb.WriteByte('>')
		}

		if children, ok := field[*value.Array](node, "children"); ok {
			for _, child := range children.Items() {
				WriteHTML(sb, child)
			}
		}

		selfClosing, _ := node.Field("self_closing")
		if hasTag && !value.Truthy(selfClosing) {
			sb.WriteString("</")
			sb.WriteString(tag)
			sb.WriteByte('>')
		}
	}
}

func parseHTML(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	src, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	node, err := ParseHTML(string(src), env)
	if err != nil {
		env.Errorf("html parse error: %s", err)

		return value.Nil{}
	}

	return node
}

// ParseHTML parses an HTML fragment into a node tree allocated from the
// arena of env. The root is a fragment node.
func ParseHTML(src string, env *value.Env) (*value.Object, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}

	nodes, err := html.ParseFragment(strings.NewReader(src), context)
	if err != nil {
		return nil, err
	}

	root := value.NewObject(env.Arena, 4)
	put(env, root, "type", sym(env, "fragment"))
	put(env, root, "tag", value.Nil{})

	children := value.NewArray(env.Arena, len(nodes))
	for _, n := range nodes {
		if v := convertNode(n, env); !value.IsNil(v) {
			children.Push(v)
		}
	}

	put(env, root, "children", children)

	return root, nil
}

func convertNode(n *html.Node, env *value.Env) value.Value {
	switch n.Type {
	case html.TextNode:
		return value.String(n.Data)

	case html.ElementNode:
		obj := value.NewObject(env.Arena, 5)
		put(env, obj, "type", sym(env, "element"))
		put(env, obj, "tag", sym(env, n.Data))

		attrs := value.NewObject(env.Arena, len(n.Attr))
		for _, a := range n.Attr {
			put(env, attrs, a.Key, value.String(a.Val))
		}

		put(env, obj, "attributes", attrs)

		children := value.NewArray(env.Arena, 0)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if v := convertNode(c, env); !value.IsNil(v) {
				children.Push(v)
			}
		}

		put(env, obj, "children", children)
		put(env, obj, "self_closing", value.Bool(isVoid(n.DataAtom)))

		return obj
	}

	return value.Nil{}
}

func isVoid(a atom.Atom) bool {
	switch a {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr,
		atom.Img, atom.Input, atom.Link, atom.Meta, atom.Source,
		atom.Track, atom.Wbr:
		return true
	}

	return false
}

// nodeArg accepts a node tree or an HTML string, which is parsed. The
// returned render function converts a result back to the input's form.
func nodeArg(args []value.Value, env *value.Env) (value.Value, func(value.Value) value.Value, bool) {
	asIs := func(v value.Value) value.Value { return v }

	switch src := args[0].(type) {
	case *value.Object:
		return src, asIs, true

	case value.String:
		node, err := ParseHTML(string(src), env)
		if err != nil {
			env.Errorf("html parse error: %s", err)

			return nil, nil, false
		}

		return node, func(v value.Value) value.Value {
			var sb strings.Builder
			WriteHTML(&sb, v)

			return value.String(sb.String())
		}, true
	}

	argExpected(0, "object|string", args, env)

	return nil, nil, false
}

func findTag(tag string, node value.Value) *value.Object {
	obj, ok := node.(*value.Object)
	if !ok {
		return nil
	}

	t, _ := obj.Field("tag")
	if name, ok := nameOf(t); ok && name == tag {
		return obj
	}

	if children, ok := field[*value.Array](obj, "children"); ok {
		for _, child := range children.Items() {
			if found := findTag(tag, child); found != nil {
				return found
			}
		}
	}

	return nil
}

// removeNode deletes needle from the children of haystack and its
// descendants.
func removeNode(needle *value.Object, haystack value.Value) bool {
	obj, ok := haystack.(*value.Object)
	if !ok {
		return false
	}

	children, ok := field[*value.Array](obj, "children")
	if !ok {
		return false
	}

	for i, child := range children.Items() {
		if child == needle {
			items := children.Items()
			copy(items[i:], items[i+1:])
			children.Pop()

			return true
		}

		if removeNode(needle, child) {
			return true
		}
	}

	return false
}

// noTitle removes the first h1 element. The input is not modified.
func noTitle(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	src, render, ok := nodeArg(args, env)
	if !ok {
		return value.Nil{}
	}

	if findTag("h1", src) != nil {
		src = value.Copy(src, env.Arena)
		removeNode(findTag("h1", src), src)
	}

	return render(src)
}

// walkHTML calls fn for every object node in the tree.
func walkHTML(node value.Value, fn func(*value.Object)) {
	obj, ok := node.(*value.Object)
	if !ok {
		return
	}

	fn(obj)

	if children, ok := field[*value.Array](obj, "children"); ok {
		for _, child := range children.Items() {
			walkHTML(child, fn)
		}
	}
}

const (
	assetPrefix = "asset:"
	linkPrefix  = "link:"
)

// rewriteLinks returns links() or urls(). Attribute values starting with
// "asset:" are copied from SRC_ROOT to DIST_ROOT/assets and linked there,
// and values starting with "link:" become site links.
func rewriteLinks(absolute bool) value.NativeFunc {
	return func(args []value.Value, env *value.Env) value.Value {
		if !env.CheckArgs(1, args) {
			return value.Nil{}
		}

		src, render, ok := nodeArg(args, env)
		if !ok {
			return value.Nil{}
		}

		srcRoot, ok := rootPath("SRC_ROOT", env)
		if !ok {
			return args[0]
		}

		if _, ok := rootPath("DIST_ROOT", env); !ok {
			return args[0]
		}

		walkHTML(src, func(node *value.Object) {
			attrs, ok := field[*value.Object](node, "attributes")
			if !ok {
				return
			}

			for _, name := range []string{"src", "href"} {
				v, _ := attrs.Field(name)
				s, ok := v.(value.String)
				if !ok {
					continue
				}

				if rewritten, ok := rewriteLink(string(s), srcRoot, absolute, env); ok {
					setField(env, attrs, name, value.String(rewritten))
				}

				break
			}
		})

		return render(src)
	}
}

func rewriteLink(s, srcRoot string, absolute bool, env *value.Env) (string, bool) {
	if p, ok := strings.CutPrefix(s, assetPrefix); ok {
		web := path.Join("assets", path.Clean("/"+p))

		dest, ok := distPath(web, env)
		if ok {
			from := filepath.Join(srcRoot, filepath.FromSlash(path.Clean("/"+p)))
			if err := CopyChanged(from, dest); err != nil {
				env.Warnf("unable to copy asset %s: %s", p, err)
			}
		}

		return WebPath(web, absolute, env), true
	}

	if p, ok := strings.CutPrefix(s, linkPrefix); ok {
		return WebPath(p, absolute, env), true
	}

	return "", false
}
