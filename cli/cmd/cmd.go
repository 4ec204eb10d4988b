package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/plet/log"
	"github.com/ardnew/plet/site"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type outputKey struct{}

// WithOutput returns a context whose commands print their results to w
// instead of stdout.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// Project selects the site a command works on.
type Project struct {
	Dir      string `default:"."  help:"Start searching for index.plet here."    short:"C" type:"existingdir"`
	RootPath string `default:"/"  help:"Web path the site is served below."      name:"root-path"`
	RootURL  string `default:""   help:"Absolute URL of the site, if known."     name:"root-url"`
	Dist     string `default:""   help:"Output directory (default: <root>/dist)." type:"path"`
}

// open finds the project root above p.Dir and returns a builder for it.
func (p *Project) open() (*site.Builder, error) {
	root, err := site.FindRoot(p.Dir)
	if err != nil {
		return nil, err
	}

	opts := []site.Option{
		site.WithLogger(log.Default()),
		site.WithRootPath(p.RootPath),
		site.WithRootURL(p.RootURL),
	}

	if p.Dist != "" {
		opts = append(opts, site.WithDist(p.Dist))
	}

	return site.New(root, opts...), nil
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// uniqueSources resolves the given source paths and drops those that name a
// file already listed, comparing device/inode pairs after resolving
// symlinks. Every "-", and any path that resolves to stdin itself, is
// reported through stdin instead of the returned list. Paths that cannot be
// resolved are kept as given so opening them reports the error.
func uniqueSources(sources []string) (files []string, stdin bool) {
	seen := make(map[fileKey]struct{})

	stdinInfo, _ := os.Stdin.Stat()
	stdinKey, hasStdinKey := makeFileKey(stdinInfo)

	for _, src := range sources {
		if src == stdinSource {
			stdin = true

			continue
		}

		key, ok := resolveKey(src)
		if !ok {
			files = append(files, src)

			continue
		}

		if hasStdinKey && key == stdinKey {
			stdin = true

			continue
		}

		if _, exists := seen[key]; exists {
			continue
		}

		seen[key] = struct{}{}
		files = append(files, src)
	}

	return files, stdin
}

// resolveKey returns the device/inode pair of the file at path after
// resolving it to an absolute path without symlinks.
func resolveKey(path string) (fileKey, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	if info == nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}
