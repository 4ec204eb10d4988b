package lexer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ardnew/plet/lang/symbol"
	"github.com/ardnew/plet/lang/token"
)

// FuzzLexer reads random input in both modes. Every token stream must end
// in exactly one EOF and carry valid, ordered positions.
func FuzzLexer(f *testing.F) {
	f.Add("Hello {name}!")
	f.Add("a{# hidden #}b")
	f.Add("{a\nb}")
	f.Add("x = 'it\\'s' + \"q\\n\"")
	f.Add("-> += -= *= /= == != <= >= < |")
	f.Add("1.5e-3 0x 42 1.")
	f.Add("'unterminated")
	f.Add("{'{nested}'}")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		for _, mode := range []Mode{ModeTemplate, ModeExpression} {
			r := Open(strings.NewReader(input), "fuzz.plet", symbol.NewTable())
			tokens := r.ReadAll(mode).Tokens()

			if n := len(tokens); n == 0 || tokens[n-1].Kind != token.EOF {
				t.Fatalf("mode %d: stream does not end in EOF", mode)
			}

			for i, tok := range tokens {
				if !tok.Start.IsValid() {
					t.Errorf("mode %d: token %d has invalid position", mode, i)
				}

				if tok.Kind == token.EOF && i != len(tokens)-1 {
					t.Errorf("mode %d: EOF at %d of %d", mode, i, len(tokens))
				}
			}
		}
	})
}
