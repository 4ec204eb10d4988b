package cli

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/lexer"
	"github.com/ardnew/plet/lang/parser"
	"github.com/ardnew/plet/lang/symbol"
	"github.com/ardnew/plet/log"
)

// resolve returns a [kong.ConfigurationLoader] for config files written in
// object notation. The file named by path is used only in diagnostics.
//
// The document must be a single object whose keys name flags:
//
//	{
//	  log_level: 'debug',
//	  log_pretty: false,
//	  port: 8080,
//	}
//
// Flag names with hyphens match keys with underscores, so log_level sets
// --log-level. Command-line flags override config file values. A file that
// cannot be parsed is reported and ignored.
func resolve(path string) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		tokens := lexer.Open(r, path, symbol.NewTable()).ReadAll(lexer.ModeExpression)

		m := parser.ParseObjectNotation(tokens, path, true)
		if m.Failed() {
			log.Warn("ignoring configuration file",
				slog.String("path", path),
				slog.Any("error", m.Diags.Err()),
			)

			return config{}, nil
		}

		v, err := ast.Literal(m.Root)
		if err != nil {
			log.Warn("ignoring configuration file",
				slog.String("path", path),
				slog.Any("error", err),
			)

			return config{}, nil
		}

		obj, ok := v.(map[string]any)
		if !ok {
			log.Warn("ignoring configuration file",
				slog.String("path", path),
				slog.String("reason", "not an object"),
			)

			return config{}, nil
		}

		return makeConfig(obj), nil
	}
}

// config implements [kong.Resolver] over a flat map of flag values.
type config map[string]any

// makeConfig formats numbers as strings, since kong parses flag values from
// text.
func makeConfig(m map[string]any) config {
	c := make(config, len(m))

	for key, v := range m {
		switch v := v.(type) {
		case int64:
			c[key] = strconv.FormatInt(v, 10)
		case float64:
			c[key] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			c[key] = v
		}
	}

	return c
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := c[flag.Name]; ok {
		return v, nil
	}

	if v, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return v, nil
	}

	return nil, nil
}
