package cmd

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ardnew/plet/arena"
	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/interp"
	"github.com/ardnew/plet/lang/lexer"
	"github.com/ardnew/plet/lang/lib"
	"github.com/ardnew/plet/lang/module"
	"github.com/ardnew/plet/lang/parser"
	"github.com/ardnew/plet/lang/value"
	"github.com/ardnew/plet/log"
)

// stdinName is the file name of stdin in diagnostics.
const stdinName = "<stdin>"

// workspace is a session, module cache and arena for evaluating sources
// outside of a site build.
type workspace struct {
	session *value.Session
	cache   *module.Cache
	arena   *arena.Arena
}

func newWorkspace() *workspace {
	s := value.NewSession(log.Default())

	return &workspace{session: s, cache: lib.NewCache(s), arena: arena.New()}
}

func (w *workspace) Close() {
	w.arena.Delete()
	w.session.Close()
}

// sourceName returns the name of source in diagnostics and module paths.
func sourceName(source string) string {
	if source == stdinSource {
		return stdinName
	}

	if abs, err := filepath.Abs(source); err == nil {
		return abs
	}

	return source
}

// read returns the content of source, which is a file or "-" for stdin.
func read(source string, stdin io.Reader) ([]byte, error) {
	if source == stdinSource {
		src, err := io.ReadAll(stdin)
		if err != nil {
			return nil, ErrRead.Wrap(err).With(slog.String("file", stdinName))
		}

		return src, nil
	}

	src, err := module.ReadFile(source)
	if err != nil {
		return nil, ErrRead.Wrap(err).With(slog.String("file", source))
	}

	return src, nil
}

// parse reads and parses source in the given mode. Diagnostics are reported
// to the session.
func (w *workspace) parse(source string, stdin io.Reader, mode lexer.Mode) (*ast.Module, error) {
	src, err := read(source, stdin)
	if err != nil {
		return nil, err
	}

	name := sourceName(source)
	r := lexer.Open(bytes.NewReader(src), name, w.session.Symbols)

	m := parser.Parse(r.ReadAll(mode), name)
	w.session.ReportAll(m.Diags)

	if m.Failed() {
		return m, ErrParse.Wrap(m.Diags.Err()).With(slog.String("file", name))
	}

	return m, nil
}

// env returns a user env for evaluating the source named name with the
// given system modules imported on top of the defaults.
func (w *workspace) env(name string, modules ...string) (*value.Env, error) {
	env := w.cache.NewUserEnv(name, w.arena)

	if name == stdinName {
		if wd, err := os.Getwd(); err == nil {
			env.DefineName("DIR", value.String(wd))
		}
	}

	if err := w.cache.ImportSystem(env, modules...); err != nil {
		return nil, ErrEval.Wrap(err)
	}

	return env, nil
}

// data decodes a data source: a JSON, object notation or YAML file, or
// object notation read from stdin.
func (w *workspace) data(source string, stdin io.Reader) (value.Value, error) {
	name := sourceName(source)

	env, err := w.env(name)
	if err != nil {
		return nil, err
	}

	if source != stdinSource && module.KindOf(name) == module.KindData {
		v := w.cache.Import(name, env)
		if p := env.Pending(); p != nil {
			return nil, ErrRead.With(slog.String("file", name), slog.String("error", p.Message))
		}

		return v, nil
	}

	src, err := read(source, stdin)
	if err != nil {
		return nil, err
	}

	r := lexer.Open(bytes.NewReader(src), name, w.session.Symbols)

	m := parser.ParseObjectNotation(r.ReadAll(lexer.ModeExpression), name, true)
	w.session.ReportAll(m.Diags)

	if m.Failed() {
		return nil, ErrParse.Wrap(m.Diags.Err()).With(slog.String("file", name))
	}

	v, err := interp.Eval(m, env)
	if err != nil {
		return nil, ErrEval.Wrap(err).With(slog.String("file", name))
	}

	return v, nil
}
