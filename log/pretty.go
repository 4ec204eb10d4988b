package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of the pretty handlers. Styles render plain text
// unless the output is a color terminal.
type palette struct {
	key, str, num, pos, null lipgloss.Style
	yes, no, when            lipgloss.Style

	trace, debug, info, warn, fail lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }

	return &palette{
		key:   fg("8"),
		str:   fg("6"),
		num:   fg("3"),
		pos:   fg("15").Bold(true),
		null:  fg("8"),
		yes:   fg("2"),
		no:    fg("1"),
		when:  fg("4"),
		trace: fg("8"),
		debug: fg("4"),
		info:  fg("2"),
		warn:  fg("3").Bold(true),
		fail:  fg("1").Bold(true),
	}
}

func (p *palette) level(l slog.Level) string {
	s := p.info

	switch {
	case l < slog.LevelDebug:
		s = p.trace
	case l < slog.LevelInfo:
		s = p.debug
	case l >= slog.LevelError:
		s = p.fail
	case l >= slog.LevelWarn:
		s = p.warn
	}

	name := levelName(l)

	return s.Render(name) + strings.Repeat(" ", max(0, 5-len(name)))
}

// prettyState is shared by a handler and the handlers derived from it.
type prettyState struct {
	mu         sync.Mutex
	w          io.Writer
	style      *palette
	opts       slog.HandlerOptions
	formatTime FormatTime
}

func (s *prettyState) write(buf *bytes.Buffer) error {
	buf.WriteByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.w.Write(buf.Bytes())

	return err
}

func (s *prettyState) enabled(l slog.Level) bool {
	threshold := slog.LevelInfo
	if s.opts.Level != nil {
		threshold = s.opts.Level.Level()
	}

	return l >= threshold
}

func (s *prettyState) source(r slog.Record) string {
	if !s.opts.AddSource || r.PC == 0 {
		return ""
	}

	if src := r.Source(); src != nil {
		return fmt.Sprintf("%s:%d", src.File, src.Line)
	}

	return ""
}

// prettyTextHandler prints one line per record in the manner of compiler
// diagnostics:
//
//	15:04:05 ERROR index.plet:3:7: undefined variable x module=core
//
// A record carrying file, line and column attributes gets them as the
// position prefix; the remaining attributes follow as key=value pairs.
type prettyTextHandler struct {
	*prettyState

	attrs  []slog.Attr
	groups []string
}

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions, ft FormatTime) *prettyTextHandler {
	return &prettyTextHandler{
		prettyState: &prettyState{w: w, style: newPalette(w), opts: *opts, formatTime: ft},
	}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(c.attrs[:len(c.attrs):len(c.attrs)], qualify(h.groups, attrs)...)

	return &c
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(c.groups[:len(c.groups):len(c.groups)], name)

	return &c
}

// qualify prefixes the keys of attrs with the open groups.
func qualify(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(groups) == 0 {
		return attrs
	}

	prefix := strings.Join(groups, ".") + "."
	out := make([]slog.Attr, len(attrs))

	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}

	return out
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)

	var own []slog.Attr

	r.Attrs(func(a slog.Attr) bool {
		own = append(own, a)

		return true
	})

	attrs = append(attrs, qualify(h.groups, own)...)

	var buf bytes.Buffer

	st := h.style

	if !r.Time.IsZero() {
		if t := h.formatTime(r.Time); t != "" {
			buf.WriteString(st.when.Render(t))
			buf.WriteByte(' ')
		}
	}

	buf.WriteString(st.level(r.Level))
	buf.WriteByte(' ')

	if src := h.source(r); src != "" {
		buf.WriteString(st.key.Render(src))
		buf.WriteByte(' ')
	}

	pos, rest := splitLocation(attrs)
	if pos != "" {
		buf.WriteString(st.pos.Render(pos + ":"))
		buf.WriteByte(' ')
	}

	buf.WriteString(r.Message)

	for _, a := range rest {
		h.writeAttr(&buf, "", a)
	}

	return h.write(&buf)
}

// splitLocation removes the file, line and column attributes from attrs and
// formats them as file:line:column.
func splitLocation(attrs []slog.Attr) (string, []slog.Attr) {
	var (
		file         string
		line, column int64
		rest         = attrs[:0:0]
	)

	for _, a := range attrs {
		switch v := a.Value.Resolve(); {
		case a.Key == KeyFile && v.Kind() == slog.KindString:
			file = v.String()
		case a.Key == KeyLine && v.Kind() == slog.KindInt64:
			line = v.Int64()
		case a.Key == KeyColumn && v.Kind() == slog.KindInt64:
			column = v.Int64()
		default:
			rest = append(rest, a)
		}
	}

	if file == "" {
		return "", attrs
	}

	switch {
	case line > 0 && column > 0:
		return fmt.Sprintf("%s:%d:%d", file, line, column), rest
	case line > 0:
		return fmt.Sprintf("%s:%d", file, line), rest
	}

	return file, rest
}

func (h *prettyTextHandler) writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}

	if v.Kind() == slog.KindGroup {
		for _, ga := range v.Group() {
			h.writeAttr(buf, key, ga)
		}

		return
	}

	buf.WriteByte(' ')
	buf.WriteString(h.style.key.Render(key + "="))
	buf.WriteString(h.value(v))
}

func (h *prettyTextHandler) value(v slog.Value) string {
	st := h.style

	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			s = strconv.Quote(s)
		}

		return st.str.Render(s)
	case slog.KindInt64:
		return st.num.Render(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return st.num.Render(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return st.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return st.yes.Render("true")
		}

		return st.no.Render("false")
	case slog.KindDuration:
		return st.num.Render(v.Duration().String())
	case slog.KindTime:
		return st.when.Render(v.Time().Format(time.RFC3339))
	}

	if v.Any() == nil {
		return st.null.Render("<nil>")
	}

	return st.str.Render(strconv.Quote(fmt.Sprint(v.Any())))
}

// prettyJSONHandler prints each record as an indented JSON object. Groups,
// including those produced by [slog.LogValuer] errors, become nested
// objects.
type prettyJSONHandler struct {
	*prettyState

	attrs  []slog.Attr
	groups []string
}

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions, ft FormatTime) *prettyJSONHandler {
	return &prettyJSONHandler{
		prettyState: &prettyState{w: w, style: newPalette(w), opts: *opts, formatTime: ft},
	}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(c.attrs[:len(c.attrs):len(c.attrs)], nest(h.groups, attrs)...)

	return &c
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(c.groups[:len(c.groups):len(c.groups)], name)

	return &c
}

// nest wraps attrs in one group attribute per open group.
func nest(groups []string, attrs []slog.Attr) []slog.Attr {
	for i := len(groups) - 1; i >= 0; i-- {
		attrs = []slog.Attr{{Key: groups[i], Value: slog.GroupValue(attrs...)}}
	}

	return attrs
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		if t := h.formatTime(r.Time); t != "" {
			fields = append(fields, slog.String(slog.TimeKey, t))
		}
	}

	fields = append(fields, slog.String(slog.LevelKey, levelName(r.Level)))

	if src := h.source(r); src != "" {
		fields = append(fields, slog.String(slog.SourceKey, src))
	}

	fields = append(fields, slog.String(slog.MessageKey, r.Message))
	fields = append(fields, h.attrs...)

	var own []slog.Attr

	r.Attrs(func(a slog.Attr) bool {
		own = append(own, a)

		return true
	})

	fields = append(fields, nest(h.groups, own)...)

	var buf bytes.Buffer

	h.writeObject(&buf, fields, 1)

	return h.write(&buf)
}

func (h *prettyJSONHandler) writeObject(buf *bytes.Buffer, attrs []slog.Attr, depth int) {
	buf.WriteByte('{')

	indent := strings.Repeat("  ", depth)
	n := 0

	for _, a := range attrs {
		v := a.Value.Resolve()
		if a.Equal(slog.Attr{}) {
			continue
		}

		if n > 0 {
			buf.WriteByte(',')
		}

		n++

		buf.WriteByte('\n')
		buf.WriteString(indent)
		buf.WriteString(h.style.key.Render(jsonString(a.Key)))
		buf.WriteString(": ")

		if v.Kind() == slog.KindGroup {
			h.writeObject(buf, v.Group(), depth+1)

			continue
		}

		buf.WriteString(h.value(v))
	}

	if n > 0 {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat("  ", depth-1))
	}

	buf.WriteByte('}')
}

func (h *prettyJSONHandler) value(v slog.Value) string {
	st := h.style

	switch v.Kind() {
	case slog.KindString:
		return st.str.Render(jsonString(v.String()))
	case slog.KindInt64:
		return st.num.Render(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return st.num.Render(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return st.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return st.yes.Render("true")
		}

		return st.no.Render("false")
	case slog.KindDuration:
		return st.str.Render(jsonString(v.Duration().String()))
	case slog.KindTime:
		return st.when.Render(jsonString(v.Time().Format(time.RFC3339Nano)))
	}

	if v.Any() == nil {
		return st.null.Render("null")
	}

	if err, ok := v.Any().(error); ok {
		return st.str.Render(jsonString(err.Error()))
	}

	return st.str.Render(jsonString(fmt.Sprint(v.Any())))
}

func jsonString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}

	return string(b)
}
