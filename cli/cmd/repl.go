package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/plet/cli/cmd/repl"
	"github.com/ardnew/plet/log"
	"github.com/ardnew/plet/pkg"
)

// Repl starts an interactive session of the language.
type Repl struct {
	Files []string `arg:"" help:"Scripts to run before the first prompt." optional:"" type:"existingfile"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	files, stdin := uniqueSources(r.Files)
	if stdin {
		return ErrStdinScript
	}

	history := pkg.HistoryFile()
	if ktx := kongContextFrom(ctx); ktx != nil {
		if path, ok := ktx.Model.Vars()[HistoryIdentifier]; ok {
			history = path
		}
	}

	log.TraceContext(ctx, "starting repl",
		slog.Any("files", files),
		slog.String("history", history),
	)

	return repl.Run(ctx, files, history, log.Default())
}
