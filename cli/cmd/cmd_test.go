package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

// capture returns a context whose command output is collected in the
// returned buffer.
func capture(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer

	return WithOutput(t.Context(), &buf), &buf
}

func TestUniqueSources(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.plet", "1")
	b := writeFile(t, dir, "b.plet", "2")

	link := filepath.Join(dir, "link.plet")
	if err := os.Symlink(a, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	rel, err := filepath.Rel(wd, b)
	if err != nil {
		t.Fatal(err)
	}

	missing := filepath.Join(dir, "missing.plet")

	tests := []struct {
		name      string
		sources   []string
		wantFiles []string
		wantStdin bool
	}{
		{"empty", nil, nil, false},
		{"distinct", []string{a, b}, []string{a, b}, false},
		{"repeated", []string{a, a, b, a}, []string{a, b}, false},
		{"relative and absolute", []string{b, rel}, []string{b}, false},
		{"symlink", []string{a, link}, []string{a}, false},
		{"stdin", []string{"-", a, "-"}, []string{a}, true},
		{"missing kept", []string{missing, a, missing}, []string{missing, a, missing}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, stdin := uniqueSources(tt.sources)

			if !slices.Equal(files, tt.wantFiles) {
				t.Errorf("files = %q, want %q", files, tt.wantFiles)
			}

			if stdin != tt.wantStdin {
				t.Errorf("stdin = %v, want %v", stdin, tt.wantStdin)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	ctx, out := capture(t)

	if err := (Version{}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	if !bytes.HasPrefix(out.Bytes(), []byte("plet ")) {
		t.Errorf("version output = %q", out)
	}
}
