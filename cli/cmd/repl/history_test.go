package repl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func lines(entries []HistoryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.encode()
	}

	return out
}

func TestHistoryAdd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "history")
	h := NewHistory(path)

	steps := []struct {
		line string
		mode inputMode
	}{
		{"x = 1", modeEval},
		{"list", modeCtrl},
		{"x + 1", modeEval},
		{"x + 1", modeEval}, // repeated, ignored
		{"x = 1", modeEval}, // moved to the end
		{"  ", modeEval},    // blank, ignored
		{"a\nb", modeEval},  // multi-line, ignored
		{"list", modeEval},  // same text in another mode is distinct
	}

	for _, s := range steps {
		if err := h.Add(s.line, s.mode); err != nil {
			t.Fatalf("Add(%q): %v", s.line, err)
		}
	}

	want := []string{"C:list", "E:x + 1", "E:x = 1", "E:list"}
	if got := lines(h.Entries()); !slices.Equal(got, want) {
		t.Errorf("entries = %q, want %q", got, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := strings.Split(strings.TrimSpace(string(data)), "\n"); !slices.Equal(got, want) {
		t.Errorf("file = %q, want %q", got, want)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := lines(reloaded.Entries()); !slices.Equal(got, want) {
		t.Errorf("reloaded = %q, want %q", got, want)
	}
}

func TestHistoryEntry(t *testing.T) {
	h := NewHistory("")

	_ = h.Add("help", modeCtrl)
	_ = h.Add("1 + 1", modeEval)

	e, err := h.Entry(0)
	if err != nil || e.Line != "help" || e.Mode != modeCtrl {
		t.Errorf("Entry(0) = %+v, %v", e, err)
	}

	e, err = h.Entry(1)
	if err != nil || e.Line != "1 + 1" || e.Mode != modeEval {
		t.Errorf("Entry(1) = %+v, %v", e, err)
	}

	for _, i := range []int{-1, 2} {
		if _, err := h.Entry(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Entry(%d) error = %v, want ErrOutOfBounds", i, err)
		}
	}
}

func TestHistoryLoad(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		h := NewHistory(filepath.Join(t.TempDir(), "history"))
		if err := h.Load(); err != nil || h.Len() != 0 {
			t.Errorf("Load = %v, Len = %d", err, h.Len())
		}
	})

	t.Run("legacy lines are eval entries", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history")
		if err := os.WriteFile(path, []byte("C:quit\nplain\n\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		h := NewHistory(path)
		if err := h.Load(); err != nil {
			t.Fatal(err)
		}

		want := []string{"C:quit", "E:plain"}
		if got := lines(h.Entries()); !slices.Equal(got, want) {
			t.Errorf("entries = %q, want %q", got, want)
		}
	})

	t.Run("trimmed to the newest entries", func(t *testing.T) {
		var sb strings.Builder
		for i := range MaxHistory + 5 {
			fmt.Fprintf(&sb, "E:%d\n", i)
		}

		path := filepath.Join(t.TempDir(), "history")
		if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
			t.Fatal(err)
		}

		h := NewHistory(path)
		if err := h.Load(); err != nil {
			t.Fatal(err)
		}

		if h.Len() != MaxHistory {
			t.Fatalf("Len = %d, want %d", h.Len(), MaxHistory)
		}

		if e, _ := h.Entry(0); e.Line != "5" {
			t.Errorf("oldest entry = %q, want 5", e.Line)
		}
	})
}
