package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ardnew/plet/log"
)

// Build evaluates index.plet and writes the site to the output directory.
type Build struct {
	Project `embed:""`
}

// Run executes the build command.
func (b *Build) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sb, err := b.open()
	if err != nil {
		return err
	}
	defer sb.Close()

	start := time.Now()

	if err := sb.Run(ctx); err != nil {
		return err
	}

	log.DebugContext(ctx, "build finished", slog.Duration("elapsed", time.Since(start)))

	return nil
}

// Watch builds the site and rebuilds it whenever one of the sources it read
// changes.
type Watch struct {
	Project `embed:""`

	Interval time.Duration `default:"500ms" help:"How often to check sources for changes." short:"i"`
}

// Run executes the watch command. It returns when ctx is canceled.
func (w *Watch) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sb, err := w.open()
	if err != nil {
		return err
	}
	defer sb.Close()

	build := func() {
		if err := sb.Run(ctx); err != nil {
			log.ErrorContext(ctx, "build failed", slog.Any("error", err))
		}
	}

	build()

	log.InfoContext(ctx, "watching for changes",
		slog.String("root", sb.Root()),
		slog.Duration("interval", w.Interval),
	)

	tick := time.NewTicker(w.Interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			if sb.Stale() {
				build()
			}
		}
	}
}

// Clean removes the output directory of the site.
type Clean struct {
	Project `embed:""`
}

// Run executes the clean command.
func (c *Clean) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sb, err := c.open()
	if err != nil {
		return err
	}
	defer sb.Close()

	dist := sb.Dist()

	// Never remove the project itself or one of its parents.
	if rel, err := filepath.Rel(dist, sb.Root()); err == nil && filepath.IsLocal(rel) {
		return ErrClean.With(slog.String("dist", dist), slog.String("root", sb.Root()))
	}

	if err := os.RemoveAll(dist); err != nil {
		return ErrClean.Wrap(err).With(slog.String("dist", dist))
	}

	log.DebugContext(ctx, "removed output directory", slog.String("dist", dist))

	return nil
}
