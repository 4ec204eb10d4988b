// Package site builds a project from its index.plet build script.
//
// A [Builder] owns the session of one project: it evaluates the build
// script, which fills SITE_MAP with the pages of the site, and compiles
// those pages into the dist directory. A [Server] wraps a builder to preview
// the site, rebuilding on demand when any source changed.
package site

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ardnew/plet/arena"
	"github.com/ardnew/plet/lang"
	"github.com/ardnew/plet/lang/interp"
	"github.com/ardnew/plet/lang/lib"
	"github.com/ardnew/plet/lang/module"
	"github.com/ardnew/plet/lang/value"
	"github.com/ardnew/plet/log"
)

const (
	// ScriptName is the build script marking the root of a project.
	ScriptName = "index.plet"

	// DistName is the directory below the root receiving the built site.
	DistName = "dist"
)

var (
	ErrNoProject = lang.NewError("no " + ScriptName + " found in any parent directory")
	ErrBuild     = lang.NewError("build failed")
	ErrScript    = lang.NewError("build script failed")
)

// FindRoot returns the first of dir and its parents containing a build
// script.
func FindRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", ErrNoProject.Wrap(err)
	}

	for {
		info, err := os.Stat(filepath.Join(dir, ScriptName))
		if err == nil && !info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject.With(slog.String("dir", dir))
		}

		dir = parent
	}
}

// Builder evaluates the build script of one project and compiles its pages.
// It is not safe for concurrent use.
type Builder struct {
	log     log.Logger
	session *value.Session
	cache   *module.Cache

	// arena holds the values of the last script evaluation.
	arena  *arena.Arena
	script *value.Env

	root     string
	dist     string
	rootPath string
	rootURL  string
}

// Option configures a [Builder].
type Option func(*Builder)

// WithLogger sets the logger receiving build progress and diagnostics.
func WithLogger(l log.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// WithRootPath sets ROOT_PATH, the prefix of every link in the site.
func WithRootPath(p string) Option {
	return func(b *Builder) { b.rootPath = p }
}

// WithRootURL sets ROOT_URL, the prefix of absolute links.
func WithRootURL(u string) Option {
	return func(b *Builder) { b.rootURL = u }
}

// WithDist sets the output directory. It defaults to dist below the root.
func WithDist(dir string) Option {
	return func(b *Builder) { b.dist = dir }
}

// New returns a builder for the project at root.
func New(root string, opts ...Option) *Builder {
	b := &Builder{
		log:  log.Make(os.Stderr),
		root: filepath.Clean(root),
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.dist == "" {
		b.dist = filepath.Join(b.root, DistName)
	}

	b.session = value.NewSession(b.log)
	b.cache = lib.NewCache(b.session)

	return b
}

func (b *Builder) Root() string { return b.root }
func (b *Builder) Dist() string { return b.dist }

// Cache returns the module cache of the builder's session.
func (b *Builder) Cache() *module.Cache { return b.cache }

// Script returns the env of the last evaluation of the build script, or nil
// before the first one.
func (b *Builder) Script() *value.Env { return b.script }

// export binds name in the script env and exports it to every template.
func export(env *value.Env, name string, v value.Value) {
	sym := env.Session.Symbols.Intern(name)
	env.Define(sym, v)
	env.Export(sym)
}

// Evaluate runs the build script in a fresh env and replaces the result of
// the previous run. Errors reported while the script runs are logged but do
// not stop the build; only a script that cannot be loaded fails.
func (b *Builder) Evaluate(ctx context.Context) error {
	path := filepath.Join(b.root, ScriptName)

	m, err := b.cache.Load(path)
	if err != nil {
		return ErrScript.Wrap(err).With(slog.String("path", path))
	}

	if m.Syntax == nil {
		return ErrScript.With(slog.String("path", path), slog.String("kind", m.Kind.String()))
	}

	a := arena.New()

	env := b.cache.NewUserEnv(path, a)
	if err := b.cache.ImportSystem(env, lib.ScriptModules...); err != nil {
		a.Delete()

		return ErrScript.Wrap(err)
	}

	export(env, "SRC_ROOT", value.String(b.root))
	export(env, "DIST_ROOT", value.String(b.dist))
	export(env, "ROOT_PATH", value.String(b.rootPath))

	if b.rootURL != "" {
		export(env, "ROOT_URL", value.String(b.rootURL))
	}

	b.log.DebugContext(ctx, "evaluating build script", slog.String("path", path))

	if _, err := interp.Eval(m.Syntax, env); err != nil {
		b.log.WarnContext(ctx, "build script reported errors", slog.Any("error", err))
	}

	if b.arena != nil {
		b.arena.Delete()
	}

	b.arena, b.script = a, env

	return nil
}

// Stale reports whether the build script must be evaluated again because
// it never ran or a module it loaded changed on disk.
func (b *Builder) Stale() bool {
	return b.script == nil || b.cache.DetectChanges()
}

// Refresh evaluates the build script again if it is stale and forgets the
// modules the new run did not load.
func (b *Builder) Refresh(ctx context.Context) error {
	if !b.Stale() {
		return nil
	}

	if err := b.Evaluate(ctx); err != nil {
		return err
	}

	if n := b.cache.Prune(); n > 0 {
		b.log.DebugContext(ctx, "pruned modules", slog.Int("count", n))
	}

	return nil
}

// Run evaluates the build script and writes every page of the site map.
func (b *Builder) Run(ctx context.Context) error {
	if err := b.Evaluate(ctx); err != nil {
		return err
	}

	b.cache.Prune()

	if err := os.MkdirAll(b.dist, 0o755); err != nil {
		return ErrBuild.Wrap(err).With(slog.String("dist", b.dist))
	}

	failed, err := lib.CompilePages(ctx, b.cache, b.script)
	if err != nil {
		return ErrBuild.Wrap(err)
	}

	if failed > 0 {
		return ErrBuild.With(slog.Int("failed", failed))
	}

	b.log.InfoContext(ctx, "build complete", slog.String("dist", b.dist))

	return nil
}

// Pages returns the site map of the last evaluation.
func (b *Builder) Pages() ([]lib.PageInfo, error) {
	if b.script == nil {
		return nil, lib.ErrNoSiteMap
	}

	return lib.Pages(b.script)
}

// Render evaluates one template page.
func (b *Builder) Render(p lib.PageInfo) (string, error) {
	return lib.RenderPage(b.cache, p, b.script)
}

// Close releases every value allocated by the builder.
func (b *Builder) Close() {
	if b.arena != nil {
		b.arena.Delete()
		b.arena, b.script = nil, nil
	}

	b.session.Close()
}
