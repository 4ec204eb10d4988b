package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/plet/log"
	"github.com/ardnew/plet/profile"
	"github.com/ardnew/plet/site"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// scaffold is the content of a new project, by path relative to its root.
var scaffold = []struct{ name, content string }{
	{site.ScriptName, `export title = 'My site'

add_page('index.html', 'templates/index.html', {heading: 'Hello, world!'})
add_static('static')
`},
	{"templates/layout.html", `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>{title}</title>
    <link rel="stylesheet" href="{link('static/style.css')}">
  </head>
  <body>
{CONTENT}
  </body>
</html>
`},
	{"templates/index.html", `{LAYOUT = 'layout.html'}
    <h1>{heading}</h1>
`},
	{"static/style.css", `body {
  font-family: sans-serif;
}
`},
}

// Init creates a new site and a user configuration file holding the current
// flag values.
type Init struct {
	Force bool `help:"Overwrite existing files" short:"f"`

	Dir string `arg:"" default:"." help:"Directory of the new site." type:"path"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if !i.Force {
		if _, err := os.Stat(filepath.Join(i.Dir, site.ScriptName)); err == nil {
			return ErrWriteFile.
				With(slog.String("file", filepath.Join(i.Dir, site.ScriptName))).
				Wrap(ErrFileExists)
		}
	}

	for _, f := range scaffold {
		name := filepath.Join(i.Dir, filepath.FromSlash(f.name))
		if err := i.create(name, func(w io.Writer) error {
			_, err := io.WriteString(w, f.content)

			return err
		}); err != nil {
			return ErrWriteFile.With(slog.String("file", name)).Wrap(err)
		}
	}

	log.InfoContext(ctx, "initialized site", slog.String("dir", i.Dir))

	return i.writeConfig(ctx)
}

// writeConfig writes the configuration file unless it already exists and
// --force is not set.
func (i *Init) writeConfig(ctx context.Context) error {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return nil
	}

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok || confPath == "" {
		return nil
	}

	err := i.create(confPath, func(w io.Writer) error {
		return i.formatConfig(w, ktx)
	})

	switch {
	case os.IsExist(err):
		log.DebugContext(ctx, "kept configuration file", slog.String("path", confPath))

		return nil
	case err != nil:
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file", slog.String("path", confPath))

	return nil
}

// create writes a new file at name, failing with an [os.ErrExist] error when
// the file exists and --force is not set.
func (i *Init) create(name string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !i.Force {
		flag |= os.O_EXCL
	}

	f, err := os.OpenFile(name, flag, 0o644)
	if err != nil {
		return err
	}

	err = write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	return err
}

// formatConfig writes the current values of the application flags as an
// object whose keys are the flag names with underscores.
func (i *Init) formatConfig(w io.Writer, ktx *kong.Context) error {
	var sb strings.Builder

	indent := strings.Repeat(" ", defaultConfigIndent)
	prefixIgnore := []string{"help", "version", profile.Tag}

	sb.WriteString("{\n")

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		val, ok := formatValue(ktx.FlagValue(flag))
		if !ok {
			continue
		}

		fmt.Fprintf(&sb, "%s%s: %s,\n", indent, strings.ReplaceAll(flag.Name, "-", "_"), val)
	}

	sb.WriteString("}\n")

	_, err := io.WriteString(w, sb.String())

	return err
}

var quoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

// quote returns s as a single-quoted string literal.
func quote(s string) string { return "'" + quoter.Replace(s) + "'" }

// formatValue returns the object notation of a flag value, or false when
// the flag is unset.
func formatValue(val any) (string, bool) {
	switch v := val.(type) {
	case nil:
		return "", false

	case bool:
		return strconv.FormatBool(v), true

	case string:
		if v == "" {
			return "", false
		}

		return quote(v), true

	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true

	case float32, float64:
		return fmt.Sprint(v), true

	case []string:
		if len(v) == 0 {
			return "", false
		}

		items := make([]string, len(v))
		for i, s := range v {
			items[i] = quote(s)
		}

		return "[" + strings.Join(items, ", ") + "]", true

	case fmt.Stringer:
		return quote(v.String()), true

	default:
		return quote(fmt.Sprint(v)), true
	}
}
