package lib

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardnew/plet/arena"
	"github.com/ardnew/plet/lang/interp"
	"github.com/ardnew/plet/lang/module"
	"github.com/ardnew/plet/lang/value"
)

// PageType says how a site map entry is produced.
type PageType uint8

const (
	PageCopy     PageType = iota // copy
	PageTemplate                 // template
)

func (t PageType) String() string {
	if t == PageTemplate {
		return "template"
	}

	return "copy"
}

// PageInfo is one decoded entry of SITE_MAP.
type PageInfo struct {
	Data    value.Value
	Src     string
	Dest    string
	WebPath string
	Type    PageType
}

// Sitemap defines the functions a build script uses to describe the site.
// SITE_MAP collects the pages to build, REVERSE_PATHS maps source files to
// links, OUTPUT_OBSERVERS are called with every written file, and
// CONTENT_HANDLERS convert content files by extension.
func Sitemap(env *value.Env) {
	env.DefineName("SITE_MAP", value.NewArray(env.Arena, 0))
	defineExported(env, "REVERSE_PATHS", value.NewObject(env.Arena, 0))
	defineExported(env, "OUTPUT_OBSERVERS", value.NewArray(env.Arena, 0))

	env.DefineNative("add_static", addStatic)
	env.DefineNative("add_reverse", addReverse)
	env.DefineNative("add_page", addPage)
	env.DefineNative("paginate", paginate)

	if handlers, ok := lookupObject(env, "CONTENT_HANDLERS"); ok {
		defineExported(env, "CONTENT_HANDLERS", handlers)

		identity := &value.Native{Name: "text", Fn: identityHandler}
		for _, ext := range []string{"txt", "htm", "html"} {
			handlers.Put(value.String(ext), identity)
		}
	}
}

func identityHandler(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	s, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	return s
}

func siteMap(env *value.Env) (*value.Array, bool) {
	v, _ := env.LookupName("SITE_MAP")

	arr, ok := v.(*value.Array)
	if !ok {
		env.Errorf("%s", ErrNoSiteMap)
	}

	return arr, ok
}

func (p PageInfo) encode(env *value.Env) *value.Object {
	obj := value.NewObject(env.Arena, 5)
	put(env, obj, "type", sym(env, p.Type.String()))
	put(env, obj, "src", value.String(p.Src))
	put(env, obj, "dest", value.String(p.Dest))

	if p.Type == PageTemplate {
		put(env, obj, "web_path", value.String(p.WebPath))

		data := p.Data
		if data == nil {
			data = value.Nil{}
		}

		put(env, obj, "data", data)
	}

	return obj
}

// DecodePage reads a site map entry.
func DecodePage(v value.Value) (PageInfo, bool) {
	obj, ok := v.(*value.Object)
	if !ok {
		return PageInfo{}, false
	}

	typ, ok1 := field[value.Symbol](obj, "type")
	src, ok2 := field[value.String](obj, "src")
	dest, ok3 := field[value.String](obj, "dest")

	if !ok1 || !ok2 || !ok3 {
		return PageInfo{}, false
	}

	p := PageInfo{Src: string(src), Dest: string(dest)}

	switch typ.Name() {
	case "copy":
		p.Type = PageCopy

	case "template":
		web, ok := field[value.String](obj, "web_path")
		if !ok {
			return PageInfo{}, false
		}

		p.Type = PageTemplate
		p.WebPath = string(web)
		p.Data, _ = obj.Field("data")

	default:
		return PageInfo{}, false
	}

	return p, true
}

// addStatic adds a file, or every file below a directory, to the site map
// as a copy. Names starting with a dot are skipped.
func addStatic(args []value.Value, env *value.Env) value.Value {
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

	sm, ok := siteMap(env)
	if !ok {
		return value.Nil{}
	}

	if err := addStaticFiles(src, dest, sm, env); err != nil {
		env.Errorf("failed copying one or more files to dist: %s", err)
	}

	return value.Nil{}
}

func addStaticFiles(src, dest string, sm *value.Array, env *value.Env) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		sm.Push(PageInfo{Type: PageCopy, Src: src, Dest: dest}.encode(env))

		return nil
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}

		err := addStaticFiles(
			filepath.Join(src, e.Name()),
			filepath.Join(dest, e.Name()),
			sm, env,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func addReverse(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(2, args) {
		return value.Nil{}
	}

	src, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	target, ok := arg[value.String](1, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	v, _ := env.LookupName("REVERSE_PATHS")

	paths, ok := v.(*value.Object)
	if !ok {
		env.Errorf("REVERSE_PATHS is missing or not an object")

		return value.Nil{}
	}

	paths.Put(src, target)

	return value.Nil{}
}

// addSiteNode adds a template page rendering tmpl to the site path.
func addSiteNode(sitePath, tmpl string, data value.Value, env *value.Env) {
	sm, ok := siteMap(env)
	if !ok {
		return
	}

	sitePath = strings.Trim(sitePath, "/")

	src, ok := srcPath(tmpl, env)
	if !ok {
		return
	}

	dest, ok := distPath(sitePath, env)
	if !ok {
		return
	}

	c, ok := cacheOf(env)
	if !ok {
		return
	}

	if _, err := c.LoadTemplate(src); err != nil {
		env.Errorf("unable to load template: %s", err)

		return
	}

	sm.Push(PageInfo{
		Type:    PageTemplate,
		Src:     src,
		Dest:    dest,
		WebPath: sitePath,
		Data:    data,
	}.encode(env))
}

func dataArg(i int, args []value.Value, env *value.Env) (value.Value, bool) {
	if i >= len(args) {
		return value.Nil{}, true
	}

	obj, ok := arg[*value.Object](i, value.KindObject, args, env)

	return obj, ok
}

// addPage adds the page dest rendered from the template src.
func addPage(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgsBetween(2, 3, args) {
		return value.Nil{}
	}

	dest, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	src, ok := arg[value.String](1, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	data, ok := dataArg(2, args, env)
	if !ok {
		return value.Nil{}
	}

	addSiteNode(string(dest), string(src), data, env)

	return value.Nil{}
}

// paginate splits items into pages of perPage items. Each page is added to
// the site map with PAGE bound to {items, total, page, pages, offset,
// path_template}, at the path template with %page% substituted.
func paginate(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgsBetween(4, 5, args) {
		return value.Nil{}
	}

	items, ok := arg[*value.Array](0, value.KindArray, args, env)
	if !ok {
		return value.Nil{}
	}

	perPage, ok := arg[value.Int](1, value.KindInt, args, env)
	if !ok {
		return value.Nil{}
	}

	if perPage <= 0 {
		env.ArgErrorf(1, "items per page must be positive")

		return value.Nil{}
	}

	template, ok := arg[value.String](2, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	src, ok := arg[value.String](3, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	data, ok := dataArg(4, args, env)
	if !ok {
		return value.Nil{}
	}

	total := int64(items.Len())
	per := int64(perPage)

	pages := int64(1)
	if total > 0 {
		pages = (total-1)/per + 1
	}

	for n := int64(1); n <= pages; n++ {
		offset := (n - 1) * per
		end := min(offset+per, total)

		page := value.NewObject(env.Arena, 6)
		put(env, page, "items", value.ArrayOf(env.Arena, items.Items()[offset:end]...))
		put(env, page, "total", value.Int(total))
		put(env, page, "page", value.Int(n))
		put(env, page, "pages", value.Int(pages))
		put(env, page, "offset", value.Int(offset))
		put(env, page, "path_template", template)

		pageData := value.NewObject(env.Arena, 1)
		if obj, ok := data.(*value.Object); ok {
			pageData = obj.Merge(env.Arena, pageData)
		}

		put(env, pageData, "PAGE", page)

		addSiteNode(PagePath(string(template), n), string(src), pageData, env)
	}

	return value.Nil{}
}

// RenderPage evaluates a template page and returns its output. The page is
// rendered in an arena of its own that is released before returning.
func RenderPage(c *module.Cache, p PageInfo, script *value.Env) (string, error) {
	attr := slog.String("src", p.Src)

	m, err := c.LoadTemplate(p.Src)
	if err != nil {
		return "", ErrTemplate.Wrap(err).With(attr)
	}

	a := arena.New()
	defer a.Delete()

	env := NewTemplateEnv(c, p.Data, script, a)
	env.DefineName("PATH", value.String(p.WebPath))

	s := c.Session()
	mark := len(s.Diagnostics())

	out := EvalTemplate(c, m, env)

	if err := s.Since(mark).Err(); err != nil {
		return "", ErrTemplate.Wrap(err).With(attr)
	}

	str, ok := out.(value.String)
	if !ok {
		return "", ErrTemplate.With(attr, slog.String("output", value.TypeName(out)))
	}

	return string(str), nil
}

// CompilePage writes one site map entry to its destination.
func CompilePage(c *module.Cache, p PageInfo, script *value.Env) error {
	if p.Type == PageCopy {
		return CopyChanged(p.Src, p.Dest)
	}

	out, err := RenderPage(c, p, script)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p.Dest), 0o755); err != nil {
		return ErrWritePage.Wrap(err).With(slog.String("dest", p.Dest))
	}

	if err := os.WriteFile(p.Dest, []byte(out), 0o644); err != nil {
		return ErrWritePage.Wrap(err).With(slog.String("dest", p.Dest))
	}

	return nil
}

// Pages returns the decoded entries of SITE_MAP in script. Invalid entries
// are logged and skipped.
func Pages(script *value.Env) ([]PageInfo, error) {
	v, _ := script.LookupName("SITE_MAP")

	sm, ok := v.(*value.Array)
	if !ok {
		return nil, ErrNoSiteMap
	}

	pages := make([]PageInfo, 0, sm.Len())

	for i, entry := range sm.Items() {
		p, ok := DecodePage(entry)
		if !ok {
			script.Session.Log.Error(ErrInvalidPage.Error(), slog.Int("index", i))

			continue
		}

		pages = append(pages, p)
	}

	return pages, nil
}

// CompilePages builds every page of the site map in script and notifies the
// output observers of each written file. It returns the number of pages
// that failed.
func CompilePages(ctx context.Context, c *module.Cache, script *value.Env) (int, error) {
	pages, err := Pages(script)
	if err != nil {
		return 0, err
	}

	root := script.String("DIST_ROOT")
	if root == "" {
		return 0, ErrNoDistRoot
	}

	log := c.Session().Log
	failed := 0

	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		rel, err := filepath.Rel(root, p.Dest)
		if err != nil {
			rel = p.Dest
		}

		log.DebugContext(ctx, "processing",
			slog.String("progress", fmt.Sprintf("%d/%d", i+1, len(pages))),
			slog.String("page", rel),
			slog.String("type", p.Type.String()),
		)

		if err := CompilePage(c, p, script); err != nil {
			log.ErrorContext(ctx, "page failed", slog.Any("error", err))

			failed++

			continue
		}

		NotifyObservers(p.Dest, script)
	}

	return failed, nil
}

// NotifyObservers calls every function in OUTPUT_OBSERVERS with path.
func NotifyObservers(path string, script *value.Env) {
	v, _ := script.LookupName("OUTPUT_OBSERVERS")

	observers, ok := v.(*value.Array)
	if !ok {
		return
	}

	for _, fn := range observers.Items() {
		if isFunction(fn) {
			interp.Apply(fn, []value.Value{value.String(path)}, script)
		}
	}
}
