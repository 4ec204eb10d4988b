package parser

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/lexer"
	"github.com/ardnew/plet/lang/symbol"
)

// FuzzParse parses random input in both modes. Diagnostics of a failed
// module name the file and say what went wrong, and a parsed module has a
// root that survives a copy.
func FuzzParse(f *testing.F) {
	f.Add("x = 1 + 2 * 3")
	f.Add("if a then b else c end if")
	f.Add("for x in [1, 2] x else 'none' end for")
	f.Add("fn fact(n)\n  return n * fact(n - 1)\nend fn")
	f.Add("f = fn(a, b) -> a | g(b)")
	f.Add("export o = {a: [1, {b: 'c'}], 'd e': -1.5}")
	f.Add("<h1>{title}</h1>{if x}y{end if}")
	f.Add("x = (1")
	f.Add("{LAYOUT = 'layout.html'}")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		for _, mode := range []lexer.Mode{lexer.ModeTemplate, lexer.ModeExpression} {
			r := lexer.Open(strings.NewReader(input), "fuzz.plet", symbol.NewTable())
			m := Parse(r.ReadAll(mode), "fuzz.plet")

			if m.Failed() {
				checkDiags(t, m)

				continue
			}

			if m.Root == nil {
				t.Fatalf("mode %d: nil root", mode)
			}

			_ = ast.Copy(m.Root, nil)
		}
	})
}

// FuzzObjectNotation parses random configuration text.
func FuzzObjectNotation(f *testing.F) {
	f.Add("{verbose: false, name: 'it\\'s', tags: ['a', 'b']}")
	f.Add("{a: {b: {c: 1}}}")
	f.Add("{a: }")
	f.Add("[1, 2")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		r := lexer.Open(strings.NewReader(input), "fuzz.plet", symbol.NewTable())

		checkDiags(t, ParseObjectNotation(r.ReadAll(lexer.ModeExpression), "fuzz.plet", true))
	})
}

func checkDiags(t *testing.T, m *ast.Module) {
	t.Helper()

	for i, d := range m.Diags {
		if d.File != "fuzz.plet" || d.Message == "" {
			t.Errorf("diagnostic %d = %q", i, d.Error())
		}
	}
}
