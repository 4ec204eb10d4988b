package repl

import (
	"slices"
	"testing"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "bar.baz", 7, "baz", 4, 7},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_minus", "a-fo", 4, "fo", 2, 4},
		{"after_paren", "double(fo", 9, "fo", 7, 9},
		{"after_comma", "add(a, fo", 9, "fo", 7, 9},
		{"in_brace", "'{fo", 4, "fo", 2, 4},
		{"after_comparison", "a > fo", 6, "fo", 4, 6},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"underscore", "add_page", 8, "add_page", 0, 8},
		{"cursor_past_end", "foo", 10, "foo", 0, 3},
		{"empty_after_dot", "site.", 5, "", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"simple_chain", "bar.baz.", 8, "bar.baz"},
		{"after_operator", "foo + bar.baz.", 14, "bar.baz"},
		{"after_paren", "(bar.baz.", 9, "bar.baz"},
		{"no_chain", "a + ", 4, ""},
		{"deep_chain", "a.b.c.", 6, "a.b.c"},
		{"after_equals", "x = a.b.", 8, "a.b"},
		{"after_minus", "x-a.b.", 6, "a.b"},
		{"not_after_dot", "a.b fo", 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parentPath(tt.input, tt.wordStart)
			if got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestChildCandidates(t *testing.T) {
	e := newTestEvaluator(t)

	mustEval(t, e, "config = {title: 'Home', nav: {home: '/', about: '/about'}}")

	top := childCandidates(e.Env(), "")
	if !slices.IsSorted(top) {
		t.Errorf("top-level candidates not sorted: %v", top)
	}

	for _, name := range []string{"config", "true", "import", "DIR"} {
		if !slices.Contains(top, name) {
			t.Errorf("top-level candidates missing %q", name)
		}
	}

	tests := []struct {
		parent string
		want   []string
	}{
		{"config", []string{"nav", "title"}},
		{"config.nav", []string{"about", "home"}},
		{"config.title", nil},
		{"config.missing", nil},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.parent, func(t *testing.T) {
			got := childCandidates(e.Env(), tt.parent)
			slices.Sort(got)

			if !slices.Equal(got, tt.want) {
				t.Errorf("childCandidates(%q) = %v, want %v", tt.parent, got, tt.want)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	e := newTestEvaluator(t)

	mustEval(t, e, `
add = fn(a, b) -> a + b
one = [1]
pair = {a: 1, b: 2}
long = 'abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz'
`)

	tests := []struct {
		name string
		want string
	}{
		{"add", "fn(a, b)"},
		{"one", "[1 item]"},
		{"pair", "{2 items}"},
		{"import", "native function"},
		{"long", `"abcdefghijklmnopqrstuvwxyzabcdefghij...`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := e.Env().LookupName(tt.name)
			if !ok {
				t.Fatalf("%s is not defined", tt.name)
			}

			if got := preview(v); got != tt.want {
				t.Errorf("preview(%s) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
