package module

import (
	"log/slog"
	"path/filepath"

	"github.com/ardnew/plet/arena"
	"github.com/ardnew/plet/lang/interp"
	"github.com/ardnew/plet/lang/value"
)

// Resolve joins name to the DIR bound in env. Absolute names are kept.
func Resolve(name string, env *value.Env) (string, error) {
	if filepath.IsAbs(name) {
		return filepath.Clean(name), nil
	}

	dir := env.String("DIR")
	if dir == "" {
		return "", ErrNoDir.With(slog.String("name", name))
	}

	return filepath.Join(dir, name), nil
}

// Import implements [value.Importer]. A system module defines its bindings
// in env and yields Nil. A user module is evaluated in an env of its own,
// allocating from the arena of env, and its exports are defined in env; the
// value of a top-level return is the result. A user module that imports
// itself, directly or not, is an error. A data module yields its value, and an asset yields its path.
// Failures are raised on env.
func (c *Cache) Import(name string, env *value.Env) value.Value {
	if m, ok := c.System(name); ok {
		m.System(env)

		return value.Nil{}
	}

	path, err := Resolve(name, env)
	if err != nil {
		env.Errorf("%s", err)

		return value.Nil{}
	}

	m, err := c.Load(path)
	if err != nil {
		env.Errorf("%s", err)

		return value.Nil{}
	}

	switch m.Kind {
	case KindUser:
		return c.importUser(m, env)

	case KindData:
		if m.Syntax != nil {
			return interp.Interpret(m.Syntax.Root, env).Value
		}

		return value.Copy(m.Data, env.Arena)
	}

	return value.String(m.Name)
}

// NewUserEnv returns a root env for evaluating a user module or template at
// path. Its values are allocated from a.
func (c *Cache) NewUserEnv(path string, a *arena.Arena) *value.Env {
	env := value.NewEnv(c.session, a)
	env.File = path

	if err := c.ImportSystem(env, c.UserEnv...); err != nil {
		c.session.Log.Warn("user env incomplete", slog.Any("error", err))
	}

	env.DefineName("FILE", value.String(path))
	env.DefineName("DIR", value.String(filepath.Dir(path)))

	return env
}

func (c *Cache) importUser(m *Module, env *value.Env) value.Value {
	if _, busy := c.importing.Get(m.Name); busy {
		env.Errorf("%s: %s", ErrImportCycle, m.Name)

		return value.Nil{}
	}

	c.importing.Set(m.Name, struct{}{})
	defer c.importing.Remove(m.Name)

	// Exported closures keep uenv as their parent, so it must live as long
	// as the importer.
	uenv := c.NewUserEnv(m.Name, env.Arena)

	before := c.session.ErrorCount()
	r := interp.Interpret(m.Syntax.Root, uenv)

	var result value.Value = value.Nil{}
	if r.Kind == interp.ResultReturn {
		result = r.Value
	}

	for sym, v := range uenv.Exports() {
		env.Define(sym, v)
	}

	if c.session.ErrorCount() != before {
		env.Errorf("errors in module %s", m.Name)
	}

	return result
}
