// Package log is a leveled logger on top of [log/slog].
//
// A [Logger] is a value built from functional options:
//
//	l := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("Kitchen"))
//
//	l.Info("build complete", slog.String("dist", dist))
//
// Attributes are always [slog.Attr] values. Errors implementing
// [slog.LogValuer] are expanded into groups by every handler.
//
// # Source locations
//
// Diagnostics about a source file carry the attributes returned by
// [Location]. With pretty text output they are printed as a position
// prefix, so a diagnostic reads like compiler output:
//
//	ERROR templates/page.html:4:12: undefined variable title
//
// # Pretty output
//
// [WithPretty] is enabled by default. Pretty text prints one line per record
// and pretty JSON indents each record. Both are styled with lipgloss and fall
// back to plain text when the output is not a color terminal.
//
// # Package logger
//
// The package-level functions write to a default logger on stderr which the
// command line reconfigures with [Config]. Calls without a context use
// [DefaultContextProvider].
package log
