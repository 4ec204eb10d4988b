package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/lexer"
	"github.com/ardnew/plet/lang/lib"
	"github.com/ardnew/plet/lang/value"
)

// Fmt reads a source and prints it in the chosen format.
type Fmt struct {
	JSON JSON `cmd:"" help:"Format a data file as JSON."`
	YAML YAML `cmd:"" help:"Format a data file as YAML."`
	AST  AST  `cmd:"" help:"Print the syntax tree of a script or template."`
}

// JSON prints a data file as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output, or 0 for compact output." short:"i"`

	Source string `arg:"" default:"-" help:"Data file or '-' for object notation on stdin." name:"source"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	w := newWorkspace()
	defer w.Close()

	v, err := w.data(j.Source, os.Stdin)
	if err != nil {
		return err
	}

	var compact, out bytes.Buffer

	lib.EncodeJSON(&compact, v)

	if j.Indent > 0 {
		if err := json.Indent(&out, compact.Bytes(), "", strings.Repeat(" ", j.Indent)); err != nil {
			return ErrJSONMarshal.Wrap(err).With(slog.String("format", "json"))
		}
	} else {
		out = compact
	}

	out.WriteByte('\n')

	_, err = out.WriteTo(outputFrom(ctx))

	return err
}

// YAML prints a data file as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Source string `arg:"" default:"-" help:"Data file or '-' for object notation on stdin." name:"source"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	w := newWorkspace()
	defer w.Close()

	v, err := w.data(y.Source, os.Stdin)
	if err != nil {
		return err
	}

	out, err := yaml.MarshalWithOptions(value.ToYAML(v), yaml.Indent(max(y.Indent, 1)))
	if err != nil {
		return ErrYAMLMarshal.Wrap(err).With(slog.String("format", "yaml"))
	}

	_, err = outputFrom(ctx).Write(out)

	return err
}

// AST prints the syntax tree of a source.
type AST struct {
	Template bool `help:"Parse the source as a template." short:"t"`

	Source string `arg:"" default:"-" help:"Source file or '-' for stdin." name:"source"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	mode := lexer.ModeExpression
	if a.Template {
		mode = lexer.ModeTemplate
	}

	w := newWorkspace()
	defer w.Close()

	m, err := w.parse(a.Source, os.Stdin, mode)
	if err != nil {
		return err
	}

	return ast.Fprint(outputFrom(ctx), m.Root)
}
