package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type valuer struct{ msg string }

func (v valuer) Error() string { return v.msg }

func (v valuer) LogValue() slog.Value {
	return slog.GroupValue(slog.String("error", v.msg), slog.String("path", "a.plet"))
}

func TestMakeDefaults(t *testing.T) {
	l := Make(nil)

	if l.Level() != LevelInfo {
		t.Errorf("level = %v", l.Level())
	}

	if l.Format() != FormatJSON {
		t.Errorf("format = %v", l.Format())
	}

	if l.caller || !l.pretty {
		t.Errorf("caller = %v, pretty = %v", l.caller, l.pretty)
	}

	var zero Logger

	zero.Error("dropped")

	if zero.Level() != DefaultLevel {
		t.Errorf("zero level = %v", zero.Level())
	}
}

func TestLevelFilter(t *testing.T) {
	tests := []struct {
		level Level
		log   func(Logger)
		want  bool
	}{
		{LevelInfo, func(l Logger) { l.Debug("m") }, false},
		{LevelInfo, func(l Logger) { l.Info("m") }, true},
		{LevelDebug, func(l Logger) { l.Debug("m") }, true},
		{LevelDebug, func(l Logger) { l.Trace("m") }, false},
		{LevelTrace, func(l Logger) { l.Trace("m") }, true},
		{LevelError, func(l Logger) { l.Warn("m") }, false},
		{LevelError, func(l Logger) { l.ErrorContext(t.Context(), "m") }, true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer

		tt.log(Make(&buf, WithLevel(tt.level)))

		if got := buf.Len() > 0; got != tt.want {
			t.Errorf("level %v: logged = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithPretty(false), WithTimeLayout("none"), WithLevel(LevelTrace))
	l.Trace("deep", slog.Int("n", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("%v: %s", err, buf.String())
	}

	if rec["level"] != "TRACE" || rec["msg"] != "deep" || rec["n"] != 3.0 {
		t.Errorf("record = %v", rec)
	}

	if _, ok := rec["time"]; ok {
		t.Error("time present with layout none")
	}
}

func TestPrettyJSON(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithTimeLayout("none")).With(slog.String("module", "core"))
	l.Warn("failed", slog.Any("error", valuer{"boom"}), slog.Bool("ok", false))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("%v: %s", err, buf.String())
	}

	if rec["level"] != "WARN" || rec["module"] != "core" || rec["ok"] != false {
		t.Errorf("record = %v", rec)
	}

	group, ok := rec["error"].(map[string]any)
	if !ok || group["error"] != "boom" || group["path"] != "a.plet" {
		t.Errorf("error = %#v", rec["error"])
	}

	if !strings.Contains(buf.String(), "\n  \"msg\": \"failed\"") {
		t.Errorf("not indented:\n%s", buf.String())
	}
}

func TestPrettyText(t *testing.T) {
	tests := []struct {
		name string
		log  func(Logger)
		want string
	}{
		{
			"location",
			func(l Logger) { l.Error("undefined variable x", Location("page.html", 4, 12)...) },
			"ERROR page.html:4:12: undefined variable x\n",
		},
		{
			"line only",
			func(l Logger) { l.Warn("odd", Location("a.yaml", 2, 0)...) },
			"WARN  a.yaml:2: odd\n",
		},
		{
			"attributes",
			func(l Logger) { l.Info("built", slog.String("dist", "/tmp/my site"), slog.Int("pages", 3)) },
			`INFO  built dist="/tmp/my site" pages=3` + "\n",
		},
		{
			"group",
			func(l Logger) { l.Info("x", slog.Any("err", valuer{"bad"})) },
			"INFO  x err.error=bad err.path=a.plet\n",
		},
		{
			"with group",
			func(l Logger) {
				l.Logger = slog.New(l.Handler().WithGroup("req"))
				l.Info("y", slog.String("id", "1"))
			},
			"INFO  y req.id=1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf, WithFormat(FormatText), WithTimeLayout("")))

			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCaller(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithFormat(FormatText), WithTimeLayout("none"), WithCaller(true)).Info("here")

	if !strings.Contains(buf.String(), "log_test.go:") {
		t.Errorf("caller missing: %s", buf.String())
	}
}

func TestWrap(t *testing.T) {
	var first, second bytes.Buffer

	l := Make(&first, WithLevel(LevelError))
	w := l.Wrap(WithOutput(&second), WithLevel(LevelDebug))

	l.Info("a")
	w.Debug("b")

	if first.Len() != 0 {
		t.Errorf("original logger changed: %s", first.String())
	}

	if !strings.Contains(second.String(), "b") {
		t.Errorf("wrapped logger output = %q", second.String())
	}

	if l.Level() != LevelError || w.Level() != LevelDebug {
		t.Errorf("levels = %v, %v", l.Level(), w.Level())
	}

	var zero Logger

	if z := zero.Wrap(WithLevel(LevelWarn)); z.Logger == nil || z.Level() != LevelWarn {
		t.Errorf("wrapped zero logger = %+v", z)
	}
}

func TestErrorAttr(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithFormat(FormatText), WithTimeLayout("none")).
		Error("failed", slog.Any("error", errors.New("plain")))

	if got := buf.String(); got != "ERROR failed error=\"plain\"\n" {
		t.Errorf("got %q", got)
	}
}
