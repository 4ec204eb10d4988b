package cmd

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

const dataJSON = `{"title": "Home", "tags": ["a", "b"], "n": 3}`

func TestFmtJSON(t *testing.T) {
	dir := t.TempDir()

	sources := map[string]string{
		"data.json": dataJSON,
		"data.yaml": "title: Home\ntags: [a, b]\nn: 3\n",
		"data.tson": "{title: 'Home', tags: ['a', 'b'], n: 3,}",
	}

	var want any
	if err := json.Unmarshal([]byte(dataJSON), &want); err != nil {
		t.Fatal(err)
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, dir, name, src)

			for _, indent := range []int{0, 4} {
				ctx, out := capture(t)

				if err := (&JSON{Indent: indent, Source: path}).Run(ctx); err != nil {
					t.Fatal(err)
				}

				var got any
				if err := json.Unmarshal(out.Bytes(), &got); err != nil {
					t.Fatalf("output is not JSON: %v\n%s", err, out)
				}

				if !reflect.DeepEqual(got, want) {
					t.Errorf("indent %d: got %v, want %v", indent, got, want)
				}

				lines := strings.Count(strings.TrimSpace(out.String()), "\n")
				if indent == 0 && lines != 0 {
					t.Errorf("compact output spans %d lines", lines+1)
				}

				if indent == 4 && !strings.Contains(out.String(), "\n    \"") {
					t.Errorf("output not indented by 4:\n%s", out)
				}
			}
		})
	}
}

func TestFmtYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "data.json", dataJSON)
	ctx, out := capture(t)

	if err := (&YAML{Indent: 2, Source: path}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"title: Home", `"n": 3`, "tags:", "- a"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("YAML output missing %q:\n%s", want, out)
		}
	}
}

func TestFmtErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.txt", "{title: }")
	missing := dir + "/missing.json"

	tests := []struct {
		name string
		run  func() error
		want string
	}{
		{"json parse", func() error { return (&JSON{Source: bad}).Run(t.Context()) }, "parse source"},
		{"yaml parse", func() error { return (&YAML{Indent: 2, Source: bad}).Run(t.Context()) }, "parse source"},
		{"json missing", func() error { return (&JSON{Source: missing}).Run(t.Context()) }, "read source"},
		{"ast parse", func() error { return (&AST{Source: bad}).Run(t.Context()) }, "parse source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestFmtAST(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		src      string
		template bool
	}{
		{"script", "x = 1 + 2\nadd_page('index.html', 'index.html')", false},
		{"template", "<p>{title}</p>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".plet", tt.src)
			ctx, out := capture(t)

			if err := (&AST{Template: tt.template, Source: path}).Run(ctx); err != nil {
				t.Fatal(err)
			}

			if out.Len() == 0 {
				t.Error("no syntax tree printed")
			}
		})
	}
}
