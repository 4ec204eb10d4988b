package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/ardnew/plet/lang/lib"
	"github.com/ardnew/plet/log"
)

// Lipsum generates random markdown content files for trying out templates.
type Lipsum struct {
	Count int `default:"1" help:"Number of files to generate." short:"n"`

	Dir string `arg:"" help:"Write files into this directory instead of printing one." optional:"" type:"path"`
}

// Run executes the lipsum command.
func (l *Lipsum) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	r := lib.NewLipsumRand()

	if l.Dir == "" {
		return lib.Lipsum(outputFrom(ctx), r)
	}

	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return ErrWriteFile.Wrap(err).With(slog.String("dir", l.Dir))
	}

	for i := range l.Count {
		if err := writeLipsum(l.Dir, i, r); err != nil {
			return err
		}
	}

	log.DebugContext(ctx, "generated content",
		slog.String("dir", l.Dir),
		slog.Int("count", l.Count),
	)

	return nil
}

// writeLipsum writes one file to dir, picking the first unused name at or
// after index i.
func writeLipsum(dir string, i int, r *rand.Rand) error {
	for n := i; ; n++ {
		name := filepath.Join(dir, fmt.Sprintf("lipsum-%03d.md", n))

		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}

		if err != nil {
			return ErrWriteFile.Wrap(err).With(slog.String("file", name))
		}

		err = lib.Lipsum(f, r)
		if cerr := f.Close(); err == nil {
			err = cerr
		}

		if err != nil {
			return ErrWriteFile.Wrap(err).With(slog.String("file", name))
		}

		return nil
	}
}
