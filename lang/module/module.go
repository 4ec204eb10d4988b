// Package module loads and caches the files a site is built from.
//
// Every file reached through import(), embed() or the site map is a module:
// a system module implemented in Go, a user module of code, a data module
// holding a literal value, or an asset that is only referenced by path.
// Modules are keyed by cleaned path and reloaded when their modification
// time changes.
package module

import (
	"bytes"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/plet/lang"
	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/hashmap"
	"github.com/ardnew/plet/lang/lexer"
	"github.com/ardnew/plet/lang/parser"
	"github.com/ardnew/plet/lang/token"
	"github.com/ardnew/plet/lang/value"
)

// Kind classifies a [Module].
type Kind uint8

const (
	KindSystem   Kind = iota // system
	KindUser                 // user
	KindData                 // data
	KindAsset                // asset
	KindTemplate             // template
)

func (k Kind) String() string {
	switch k {
	case KindSystem:
		return "system"
	case KindUser:
		return "user"
	case KindData:
		return "data"
	case KindAsset:
		return "asset"
	case KindTemplate:
		return "template"
	}

	return "unknown"
}

// SystemFunc defines the bindings of a system module in env.
type SystemFunc func(env *value.Env)

// Module is one cached source.
type Module struct {
	ModTime time.Time

	// Syntax is the parsed tree of user, template and object-notation data
	// modules.
	Syntax *ast.Module

	// Data is the decoded value of a YAML data module, allocated from the
	// session arena.
	Data value.Value

	System SystemFunc

	err error

	Name string
	Hash uint64
	Kind Kind

	dirty bool
}

// Failed reports whether the module could not be parsed.
func (m *Module) Failed() bool { return m.err != nil }

// Err returns the parse or decode error of the module, if any.
func (m *Module) Err() error { return m.err }

// Cache holds every module of a session.
type Cache struct {
	modules *hashmap.Map[string, *Module]
	session *value.Session

	// importing holds the user modules being evaluated by Import.
	importing *hashmap.Map[string, struct{}]

	// UserEnv names the system modules imported into the env of every user
	// module.
	UserEnv []string
}

// NewCache returns an empty cache and installs it as the session importer.
func NewCache(s *value.Session) *Cache {
	c := &Cache{
		modules: hashmap.New[string, *Module](
			hashmap.String,
			hashmap.Equal[string],
			hashmap.WithCapacity(64),
		),
		importing: hashmap.New[string, struct{}](hashmap.String, hashmap.Equal[string]),
		session:   s,
		UserEnv:   []string{"core", "strings", "collections", "datetime", "exec"},
	}

	s.Modules = c

	return c
}

func (c *Cache) Session() *value.Session { return c.session }

// Len returns the number of cached modules.
func (c *Cache) Len() int { return c.modules.Len() }

// Register adds a system module.
func (c *Cache) Register(name string, fn SystemFunc) {
	c.modules.Set(name, &Module{Name: name, Kind: KindSystem, System: fn})
}

// System looks up a system module by name.
func (c *Cache) System(name string) (*Module, bool) {
	m, ok := c.modules.Get(name)
	if !ok || m.Kind != KindSystem {
		return nil, false
	}

	return m, true
}

// ImportSystem defines the bindings of the named system modules in env.
func (c *Cache) ImportSystem(env *value.Env, names ...string) error {
	for _, name := range names {
		m, ok := c.System(name)
		if !ok {
			return ErrUnknownModule.With(slog.String("module", name))
		}

		m.System(env)
	}

	return nil
}

// KindOf returns the kind of module a file name denotes.
func KindOf(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".plet":
		return KindUser
	case ".json", ".tson", ".yaml", ".yml":
		return KindData
	}

	return KindAsset
}

// Load returns the module for the file at path, reading it when it is not
// cached or has changed on disk. Parse errors are reported to the session
// once per load and leave the module flagged as failed.
func (c *Cache) Load(path string) (*Module, error) {
	return c.load(filepath.Clean(path), KindOf(path))
}

// LoadTemplate returns the module for a template file, parsed in template
// mode.
func (c *Cache) LoadTemplate(path string) (*Module, error) {
	return c.load(filepath.Clean(path), KindTemplate)
}

// LoadAsset records the file at path as an asset so its changes are
// detected, whatever its extension.
func (c *Cache) LoadAsset(path string) (*Module, error) {
	return c.load(filepath.Clean(path), KindAsset)
}

func (c *Cache) load(path string, kind Kind) (*Module, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, ErrRead.Wrap(err).With(slog.String("path", path))
	}

	m, cached := c.modules.Get(path)
	if cached && m.Kind == kind && !m.dirty && m.ModTime.Equal(info.ModTime()) {
		return m, m.err
	}

	if kind == KindAsset {
		m = &Module{Name: path, Kind: kind, ModTime: info.ModTime()}
		c.modules.Set(path, m)

		return m, nil
	}

	src, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	hash := xxh3.Hash(src)

	if cached && m.Kind == kind && m.Hash == hash && !m.Failed() {
		m.ModTime, m.dirty = info.ModTime(), false

		return m, nil
	}

	m = &Module{Name: path, Kind: kind, ModTime: info.ModTime(), Hash: hash}

	switch ext := strings.ToLower(filepath.Ext(path)); {
	case kind == KindTemplate:
		m.Syntax = c.parse(src, path, lexer.ModeTemplate)
	case kind == KindUser:
		m.Syntax = c.parse(src, path, lexer.ModeExpression)
	case ext == ".yaml" || ext == ".yml":
		m.Data, m.err = c.decodeYAML(src, path)
	default:
		r := lexer.Open(bytes.NewReader(src), path, c.session.Symbols)
		m.Syntax = parser.ParseObjectNotation(r.ReadAll(lexer.ModeExpression), path, true)
		c.session.ReportAll(m.Syntax.Diags)
	}

	if m.Syntax != nil && m.Syntax.Failed() {
		m.err = lang.ErrModuleFailed.Wrap(m.Syntax.Diags.Errors()).With(slog.String("path", path))
	}

	c.modules.Set(path, m)

	return m, m.err
}

func (c *Cache) parse(src []byte, path string, mode lexer.Mode) *ast.Module {
	r := lexer.Open(bytes.NewReader(src), path, c.session.Symbols)
	m := parser.Parse(r.ReadAll(mode), path)
	c.session.ReportAll(m.Diags)

	return m
}

func (c *Cache) decodeYAML(src []byte, path string) (value.Value, error) {
	var doc any
	if err := yaml.UnmarshalWithOptions(src, &doc, yaml.UseOrderedMap()); err != nil {
		c.session.Reportf(lang.SeverityError, path, token.Pos{}, token.Pos{}, "%s", yaml.FormatError(err, false, false))

		return value.Nil{}, ErrDecode.Wrap(err).With(slog.String("path", path))
	}

	return value.FromGo(doc, c.session.Arena), nil
}

// ReadFile reads a whole file through a read-ahead buffer.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrRead.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrRead.Wrap(err).With(slog.String("path", path))
	}

	return data, nil
}

// DetectChanges marks every file module whose modification time differs
// from the cached one as dirty and reports whether any was found.
func (c *Cache) DetectChanges() bool {
	changed := false

	for _, m := range c.modules.All() {
		if m.Kind == KindSystem {
			continue
		}

		info, err := os.Stat(m.Name)
		if m.dirty || err != nil || !info.ModTime().Equal(m.ModTime) {
			m.dirty = true
			changed = true
		}
	}

	return changed
}

// Dirty reports whether the module at path is cached and out of date.
func (c *Cache) Dirty(path string) bool {
	m, ok := c.modules.Get(filepath.Clean(path))
	if !ok {
		return true
	}

	if m.dirty {
		return true
	}

	info, err := os.Stat(m.Name)

	return err != nil || !info.ModTime().Equal(m.ModTime)
}

// Modules yields the cached modules.
func (c *Cache) Modules() iter.Seq[*Module] {
	return func(yield func(*Module) bool) {
		for _, m := range c.modules.All() {
			if !yield(m) {
				return
			}
		}
	}
}

// Prune drops the file modules still marked dirty, which a rebuild did not
// load again, and returns how many were removed.
func (c *Cache) Prune() int {
	var stale []string

	for name, m := range c.modules.All() {
		if m.Kind != KindSystem && m.dirty {
			stale = append(stale, name)
		}
	}

	for _, name := range stale {
		c.modules.Remove(name)
	}

	return len(stale)
}
