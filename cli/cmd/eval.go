package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/plet/lang/interp"
	"github.com/ardnew/plet/lang/lexer"
	"github.com/ardnew/plet/lang/lib"
	"github.com/ardnew/plet/lang/value"
	"github.com/ardnew/plet/log"
)

// evalModules are imported into the env of an evaluated source on top of the
// user env.
var evalModules = []string{"sitemap", "contentmap", "html", "markdown"}

// Eval evaluates a single source file and prints its value.
type Eval struct {
	Template bool `help:"Parse the source as a template." short:"t"`

	Source string `arg:"" default:"-" help:"Source file or '-' for stdin." name:"source"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	mode := lexer.ModeExpression
	if e.Template {
		mode = lexer.ModeTemplate
	}

	w := newWorkspace()
	defer w.Close()

	m, err := w.parse(e.Source, os.Stdin, mode)
	if err != nil {
		return err
	}

	env, err := w.env(m.File, evalModules...)
	if err != nil {
		return err
	}

	v, err := interp.Eval(m, env)
	if err != nil {
		return ErrEval.Wrap(err).With(slog.String("file", m.File))
	}

	log.TraceContext(ctx, "evaluated",
		slog.String("file", m.File),
		slog.String("mode", mode.String()),
		slog.String("type", value.TypeName(v)),
	)

	return printValue(outputFrom(ctx), v)
}

// printValue writes strings as they are and any other non-nil value as a
// line of JSON.
func printValue(w io.Writer, v value.Value) error {
	switch v := v.(type) {
	case value.Nil:
		return nil
	case value.String:
		_, err := io.WriteString(w, string(v))

		return err
	}

	var buf bytes.Buffer

	lib.EncodeJSON(&buf, v)
	buf.WriteByte('\n')

	_, err := buf.WriteTo(w)

	return err
}
