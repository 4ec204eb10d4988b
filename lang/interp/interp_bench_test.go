package interp

import (
	"strings"
	"testing"

	"github.com/ardnew/plet/lang/lexer"
	"github.com/ardnew/plet/lang/parser"
)

// BenchmarkInterpret measures evaluation of parsed scripts.
func BenchmarkInterpret(b *testing.B) {
	tests := []struct {
		name string
		mode lexer.Mode
		src  string
	}{
		{"arithmetic", lexer.ModeExpression, "x = 10\ny = 20\n(x + y) * 2 - x / 5"},
		{"closure", lexer.ModeExpression, "inc = fn(x) -> x + 1\ninc(inc(inc(1)))"},
		{"loop", lexer.ModeExpression, "s = 0\nfor x in [1, 2, 3, 4, 5, 6, 7, 8] s += x end for\ns"},
		{"map", lexer.ModeExpression, "map([1, 2, 3, 4], fn(x, i) -> x * i)"},
		{"template", lexer.ModeTemplate, "<ul>{for x in ['a', 'b', 'c']}<li>{x}</li>{end for}</ul>"},
	}

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			env := newEnv(b)
			r := lexer.Open(strings.NewReader(tt.src), "bench.plet", env.Session.Symbols)

			m := parser.Parse(r.ReadAll(tt.mode), "bench.plet")
			if m.Failed() {
				b.Fatal(m.Diags.Err())
			}

			b.ReportAllocs()

			for b.Loop() {
				if r := Interpret(m.Root, env.Child()); r.Kind != ResultValue && r.Kind != ResultReturn {
					b.Fatalf("result kind %v", r.Kind)
				}
			}
		})
	}
}
