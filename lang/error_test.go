package lang

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ardnew/plet/lang/token"
)

func TestErrorWrap(t *testing.T) {
	err := ErrReadInput.
		With(slog.String("file", "index.plet")).
		Wrap(io.ErrUnexpectedEOF)

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("wrapped cause not found")
	}

	if !errors.Is(err, ErrReadInput) {
		t.Error("sentinel not matched")
	}

	if errors.Is(err, ErrParse) {
		t.Error("matched unrelated sentinel")
	}

	if got, want := err.Error(), "failed to read input: unexpected EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if len(err.Attrs()) != 1 {
		t.Errorf("Attrs() = %v", err.Attrs())
	}

	if WrapError(err) != err {
		t.Error("WrapError re-wrapped an *Error")
	}

	if got := WrapError(io.EOF).Error(); got != "EOF" {
		t.Errorf("WrapError(io.EOF) = %q", got)
	}
}

func TestErrorLogValue(t *testing.T) {
	v := ErrParse.Wrap(io.EOF).With(slog.Int("line", 3)).LogValue()

	got := map[string]string{}
	for _, a := range v.Group() {
		got[a.Key] = a.Value.String()
	}

	want := map[string]string{"error": "parse error", "cause": "EOF", "line": "3"}
	for k, w := range want {
		if got[k] != w {
			t.Errorf("%s = %q, want %q", k, got[k], w)
		}
	}
}

func TestDiagnostic(t *testing.T) {
	d := Diagnostic{
		File:    "page.plet",
		Message: "undefined variable: y",
		Start:   token.Pos{Line: 2, Column: 6},
		End:     token.Pos{Line: 2, Column: 7},
	}

	if got, want := d.Error(), "page.plet:2:6: error: undefined variable: y"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	snip := d.Snippet("first\n{a + y}\n")
	lines := strings.Split(snip, "\n")

	if lines[0] != "  2 | {a + y}" {
		t.Errorf("snippet line = %q", lines[0])
	}

	if caret := strings.Index(lines[1], "^"); caret != strings.Index(lines[0], "y") {
		t.Errorf("caret at %d, want under 'y'", caret)
	}

	if d.Snippet("one line") != "" {
		t.Error("snippet outside source")
	}
}

func TestDiagnosticsErr(t *testing.T) {
	ds := Diagnostics{
		{Message: "note", Severity: SeverityInfo},
	}

	if ds.Err() != nil {
		t.Error("info-only list reported error")
	}

	ds = append(ds, Diagnostic{Message: "bad"})

	err := ds.Err()
	if err == nil || err.Error() != "error: bad" {
		t.Errorf("Err() = %v", err)
	}
}
