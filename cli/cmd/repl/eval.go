package repl

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ardnew/plet/arena"
	"github.com/ardnew/plet/lang"
	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/interp"
	"github.com/ardnew/plet/lang/lexer"
	"github.com/ardnew/plet/lang/lib"
	"github.com/ardnew/plet/lang/module"
	"github.com/ardnew/plet/lang/parser"
	"github.com/ardnew/plet/lang/value"
	"github.com/ardnew/plet/log"
)

// Modules are imported into the REPL env on top of the user env.
var Modules = []string{"sitemap", "contentmap", "html", "markdown"}

// Evaluator evaluates input lines and scripts in one persistent env, so
// names assigned by one input are visible to the next.
type Evaluator struct {
	session *value.Session
	cache   *module.Cache
	arena   *arena.Arena
	env     *value.Env
	inputs  int
}

// NewEvaluator returns an evaluator whose env resolves relative imports
// against dir. Diagnostics are returned from the evaluating methods rather
// than logged.
func NewEvaluator(dir string) (*Evaluator, error) {
	s := value.NewSession(log.Make(io.Discard))
	c := lib.NewCache(s)
	a := arena.New()

	env := c.NewUserEnv("<repl>", a)
	env.DefineName("DIR", value.String(dir))

	if err := c.ImportSystem(env, Modules...); err != nil {
		a.Delete()
		s.Close()

		return nil, err
	}

	return &Evaluator{session: s, cache: c, arena: a, env: env}, nil
}

// Env returns the env inputs are evaluated in.
func (e *Evaluator) Env() *value.Env { return e.env }

// Close releases every value created by the evaluator.
func (e *Evaluator) Close() {
	e.arena.Delete()
	e.session.Close()
}

// Parse parses src as a script named name.
func (e *Evaluator) Parse(name, src string) (*ast.Module, error) {
	r := lexer.Open(strings.NewReader(src), name, e.session.Symbols)

	m := parser.Parse(r.ReadAll(lexer.ModeExpression), name)
	if m.Failed() {
		return m, m.Diags.Err()
	}

	return m, nil
}

// Eval parses and evaluates one line of input.
func (e *Evaluator) Eval(src string) (value.Value, lang.Diagnostics, error) {
	e.inputs++

	m, err := e.Parse(fmt.Sprintf("<input %d>", e.inputs), src)
	if err != nil {
		return value.Nil{}, nil, err
	}

	return e.Run(m)
}

// Run evaluates a parsed script. Warnings reported while it ran are returned
// alongside its value; errors are returned as the error.
func (e *Evaluator) Run(m *ast.Module) (value.Value, lang.Diagnostics, error) {
	mark := len(e.session.Diagnostics())
	file := e.env.File

	defer func() { e.env.File = file }()

	v, err := interp.Eval(m, e.env)

	var warnings lang.Diagnostics

	for _, d := range e.session.Since(mark) {
		if d.Severity != lang.SeverityError {
			warnings = append(warnings, d)
		}
	}

	return v, warnings, err
}

// Load evaluates the script at path in the REPL env.
func (e *Evaluator) Load(path string) (value.Value, lang.Diagnostics, error) {
	src, err := module.ReadFile(path)
	if err != nil {
		return value.Nil{}, nil, err
	}

	m, err := e.Parse(path, string(src))
	if err != nil {
		return value.Nil{}, nil, err
	}

	return e.Run(m)
}

// format renders v the way it would be written as a literal.
func format(v value.Value) string {
	var buf bytes.Buffer

	lib.EncodeJSON(&buf, v)

	return buf.String()
}
