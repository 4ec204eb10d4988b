package lang

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/plet/lang/token"
)

// Severity classifies a [Diagnostic].
type Severity uint8

const (
	SeverityError   Severity = iota // error
	SeverityWarning                 // warning
	SeverityInfo                    // info
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "error"
	}
}

// Diagnostic is a positioned message from the lexer, parser or interpreter.
type Diagnostic struct {
	File     string
	Message  string
	Start    token.Pos
	End      token.Pos
	Severity Severity
}

// Error formats d as "file:line:col: severity: message".
func (d Diagnostic) Error() string {
	var sb strings.Builder

	if d.File != "" {
		sb.WriteString(d.File)
		sb.WriteByte(':')
	}

	if d.Start.IsValid() {
		sb.WriteString(d.Start.String())
		sb.WriteByte(':')
	}

	if sb.Len() > 0 {
		sb.WriteByte(' ')
	}

	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")
	sb.WriteString(d.Message)

	return sb.String()
}

// LogValue implements slog.LogValuer.
func (d Diagnostic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("file", d.File),
		slog.Int("line", d.Start.Line),
		slog.Int("column", d.Start.Column),
		slog.String("message", d.Message),
	)
}

// Snippet renders the source line containing d with a caret marker under
// the diagnostic span. It returns "" when the line is not in source.
func (d Diagnostic) Snippet(source string) string {
	lines := strings.Split(source, "\n")
	if d.Start.Line <= 0 || d.Start.Line > len(lines) {
		return ""
	}

	line := strings.TrimRight(lines[d.Start.Line-1], "\r")
	num := strconv.Itoa(d.Start.Line)

	var sb strings.Builder

	sb.WriteString("  ")
	sb.WriteString(num)
	sb.WriteString(" | ")
	sb.WriteString(line)
	sb.WriteByte('\n')

	// 2 leading spaces + " | "
	pad := len(num) + 5
	if d.Start.Column > 0 {
		pad += d.Start.Column - 1
	}

	width := 1
	if d.End.Line == d.Start.Line && d.End.Column > d.Start.Column+1 {
		width = d.End.Column - d.Start.Column
	}

	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(strings.Repeat("^", width))
	sb.WriteByte('\n')

	return sb.String()
}

// Diagnostics is a list of diagnostics that is itself an error.
type Diagnostics []Diagnostic

// Error joins the errors in the list, one per line.
func (ds Diagnostics) Error() string {
	msgs := make([]string, 0, len(ds))
	for _, d := range ds {
		msgs = append(msgs, d.Error())
	}

	return strings.Join(msgs, "\n")
}

// Errors returns only the diagnostics with [SeverityError].
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics

	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}

	return out
}

// Err returns the error-severity diagnostics as an error, or nil if there
// are none.
func (ds Diagnostics) Err() error {
	if errs := ds.Errors(); len(errs) > 0 {
		return errs
	}

	return nil
}
