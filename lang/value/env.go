package value

import (
	"fmt"
	"iter"

	"github.com/ardnew/plet/arena"
	"github.com/ardnew/plet/lang"
	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/hashmap"
	"github.com/ardnew/plet/lang/symbol"
	"github.com/ardnew/plet/lang/token"
	"github.com/ardnew/plet/log"
)

// ArgNone marks a pending error that is not about any one argument.
const ArgNone = -1

// Pending is an error raised by a native function. The interpreter turns it
// into a positioned diagnostic once the call returns.
type Pending struct {
	Message  string
	Arg      int
	Severity lang.Severity
}

// Env is a scope of variable bindings. Lookups walk outward through parent
// scopes; definitions always affect the innermost scope.
type Env struct {
	bindings *hashmap.Map[symbol.Symbol, Value]
	parent   *Env

	// Arena owns values created while evaluating in this env.
	Arena   *arena.Arena
	Session *Session

	// File names the source being evaluated, for diagnostics.
	File string

	exports []symbol.Symbol
	pending *Pending

	// Loops counts the loops enclosing the code being evaluated.
	Loops int
}

// NewEnv returns a root scope whose values are allocated from a.
func NewEnv(s *Session, a *arena.Arena) *Env {
	return &Env{
		bindings: hashmap.New[symbol.Symbol, Value](
			symbol.Hash,
			hashmap.Equal[symbol.Symbol],
			hashmap.WithArena(a),
		),
		Arena:   a,
		Session: s,
	}
}

// Child returns a scope nested in env sharing its arena.
func (env *Env) Child() *Env {
	c := NewEnv(env.Session, env.Arena)
	c.parent = env
	c.File = env.File

	return c
}

// ChildIn returns a scope nested in env allocating from a.
func (env *Env) ChildIn(a *arena.Arena) *Env {
	c := NewEnv(env.Session, a)
	c.parent = env
	c.File = env.File

	return c
}

func (env *Env) Parent() *Env { return env.parent }

// Define binds sym in the innermost scope.
func (env *Env) Define(sym symbol.Symbol, v Value) {
	if v == nil {
		v = Nil{}
	}

	env.bindings.Set(sym, v)
}

// DefineName interns name and binds it in the innermost scope.
func (env *Env) DefineName(name string, v Value) {
	env.Define(env.Session.Symbols.Intern(name), v)
}

// DefineNative binds a host function under name.
func (env *Env) DefineNative(name string, fn NativeFunc) {
	env.DefineName(name, &Native{Name: name, Fn: fn})
}

// Lookup finds the nearest binding of sym.
func (env *Env) Lookup(sym symbol.Symbol) (Value, bool) {
	for e := env; e != nil; e = e.parent {
		if v, ok := e.bindings.Get(sym); ok {
			return v, true
		}
	}

	return Nil{}, false
}

// LookupName finds the nearest binding of name without interning it.
func (env *Env) LookupName(name string) (Value, bool) {
	sym, ok := env.Session.Symbols.Lookup(name)
	if !ok {
		return Nil{}, false
	}

	return env.Lookup(sym)
}

// Local finds a binding of sym in the innermost scope only.
func (env *Env) Local(sym symbol.Symbol) (Value, bool) {
	return env.bindings.Get(sym)
}

// String returns the text of the string bound to name, or "".
func (env *Env) String(name string) string {
	if v, ok := env.LookupName(name); ok {
		if s, ok := v.(String); ok {
			return string(s)
		}
	}

	return ""
}

// Export records sym as exported from this scope.
func (env *Env) Export(sym symbol.Symbol) {
	for _, s := range env.exports {
		if s == sym {
			return
		}
	}

	env.exports = append(env.exports, sym)
}

// Exports yields the exported names of this scope with their values.
func (env *Env) Exports() iter.Seq2[symbol.Symbol, Value] {
	return func(yield func(symbol.Symbol, Value) bool) {
		for _, sym := range env.exports {
			v, _ := env.bindings.Get(sym)
			if !yield(sym, v) {
				return
			}
		}
	}
}

// Bindings yields the bindings of the innermost scope.
func (env *Env) Bindings() iter.Seq2[symbol.Symbol, Value] {
	return env.bindings.All()
}

// Names returns every name visible from env, innermost first and without
// duplicates.
func (env *Env) Names() []string {
	seen := make(map[symbol.Symbol]struct{})

	var names []string

	for e := env; e != nil; e = e.parent {
		for sym := range e.bindings.Keys() {
			if _, ok := seen[sym]; ok {
				continue
			}

			seen[sym] = struct{}{}
			names = append(names, sym.Name())
		}
	}

	return names
}

// Errorf raises an error about the call as a whole.
func (env *Env) Errorf(format string, args ...any) {
	env.raise(lang.SeverityError, ArgNone, format, args...)
}

// ArgErrorf raises an error about argument i.
func (env *Env) ArgErrorf(i int, format string, args ...any) {
	env.raise(lang.SeverityError, i, format, args...)
}

// Warnf raises a warning about the call.
func (env *Env) Warnf(format string, args ...any) {
	env.raise(lang.SeverityWarning, ArgNone, format, args...)
}

// Infof raises an informational message about the call.
func (env *Env) Infof(format string, args ...any) {
	env.raise(lang.SeverityInfo, ArgNone, format, args...)
}

func (env *Env) raise(sev lang.Severity, arg int, format string, args ...any) {
	env.pending = &Pending{
		Message:  fmt.Sprintf(format, args...),
		Arg:      arg,
		Severity: sev,
	}
}

// Pending returns the message raised since the last ClearError, if any.
func (env *Env) Pending() *Pending { return env.pending }

// Failed reports whether an error (not a warning) is pending.
func (env *Env) Failed() bool {
	return env.pending != nil && env.pending.Severity == lang.SeverityError
}

func (env *Env) ClearError() { env.pending = nil }

// CheckArgs raises an error unless exactly n arguments were passed.
func (env *Env) CheckArgs(n int, args []Value) bool {
	return env.CheckArgsBetween(n, n, args)
}

// CheckArgsBetween raises an error unless between lo and hi arguments were
// passed. A negative hi means no upper bound.
func (env *Env) CheckArgsBetween(lo, hi int, args []Value) bool {
	switch {
	case len(args) < lo:
		env.Errorf("too few arguments for function, %d expected", lo)

		return false
	case hi >= 0 && len(args) > hi:
		env.ArgErrorf(hi, "too many arguments for function, %d expected", hi)

		return false
	}

	return true
}

// ArgTypeError raises an error about argument i not being of kind.
func (env *Env) ArgTypeError(i int, kind Kind, args []Value) {
	env.ArgErrorf(i, "unexpected argument of type %s, %s expected", TypeName(args[i]), kind)
}

// Importer loads modules by name on behalf of import().
type Importer interface {
	Import(name string, env *Env) Value
}

// Session holds the state shared by every evaluation in one build: the
// symbol table, the arena that outlives individual modules, the module
// loader and the diagnostics reported so far.
type Session struct {
	Symbols *symbol.Table
	Arena   *arena.Arena
	Modules Importer
	Log     log.Logger

	diags  lang.Diagnostics
	errors int

	// fns holds the persistent copies of function literals, so evaluating
	// the same fn expression again does not grow Arena.
	fns map[*ast.Fn]fnCopy
}

// NewSession returns a session with a fresh symbol table and persistent
// arena. Diagnostics are logged to l.
func NewSession(l log.Logger) *Session {
	return &Session{
		Symbols: symbol.NewTable(),
		Arena:   arena.New(),
		Log:     l,
	}
}

// Report records d and logs it.
func (s *Session) Report(d lang.Diagnostic) {
	s.diags = append(s.diags, d)

	attrs := log.Location(d.File, d.Start.Line, d.Start.Column)

	switch d.Severity {
	case lang.SeverityError:
		s.errors++
		s.Log.Error(d.Message, attrs...)
	case lang.SeverityWarning:
		s.Log.Warn(d.Message, attrs...)
	default:
		s.Log.Info(d.Message, attrs...)
	}
}

// Reportf records a diagnostic built from its parts.
func (s *Session) Reportf(
	sev lang.Severity,
	file string,
	start, end token.Pos,
	format string,
	args ...any,
) {
	s.Report(lang.Diagnostic{
		File:     file,
		Message:  fmt.Sprintf(format, args...),
		Start:    start,
		End:      end,
		Severity: sev,
	})
}

// ReportAll records every diagnostic in ds.
func (s *Session) ReportAll(ds lang.Diagnostics) {
	for _, d := range ds {
		s.Report(d)
	}
}

// Diagnostics returns everything reported so far.
func (s *Session) Diagnostics() lang.Diagnostics { return s.diags }

// ErrorCount returns the number of errors reported so far.
func (s *Session) ErrorCount() int { return s.errors }

// DropDiagnostics forgets the diagnostics reported so far. The error count
// keeps growing, so marks taken with ErrorCount stay comparable; marks taken
// with len(Diagnostics()) do not.
func (s *Session) DropDiagnostics() { s.diags = nil }

// Since returns the diagnostics reported after the first n.
func (s *Session) Since(n int) lang.Diagnostics {
	if n >= len(s.diags) {
		return nil
	}

	return s.diags[n:]
}

// Close releases the persistent arena.
func (s *Session) Close() {
	s.Arena.Delete()
}
