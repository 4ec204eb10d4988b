package site

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ardnew/plet/lang"
	"github.com/ardnew/plet/lang/lib"
	"github.com/ardnew/plet/log"
)

// DefaultPort is the port the preview server listens on.
const DefaultPort = 6500

var ErrServe = lang.NewError("preview server failed")

// Server previews a site. Each request first brings the build up to date,
// then renders the matching template page, serves the matching copied
// file, or falls back to the dist directory. Requests are handled one at a
// time.
type Server struct {
	builder *Builder
	log     log.Logger
	now     func() time.Time

	mu sync.Mutex
}

// NewServer returns a server previewing the site of b.
func NewServer(b *Builder) *Server {
	return &Server{builder: b, log: b.log, now: time.Now}
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)

	go func() {
		s.log.InfoContext(ctx, "serving", slog.String("addr", addr), slog.String("root", s.builder.Root()))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return ErrServe.Wrap(err).With(slog.String("addr", addr))

	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdown); err != nil {
			return ErrServe.Wrap(err)
		}

		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return ErrServe.Wrap(err)
		}

		return nil
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("Date", s.now().UTC().Format(http.TimeFormat))

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.text(w, http.StatusMethodNotAllowed, "Method Not Allowed")

		return
	}

	ctx := r.Context()
	attr := slog.String("path", r.URL.Path)

	// Diagnostics are logged as they are reported; keeping them across
	// requests would grow the session without bound.
	s.builder.session.DropDiagnostics()

	if err := s.builder.Refresh(ctx); err != nil {
		s.log.ErrorContext(ctx, "rebuild failed", attr, slog.Any("error", err))
		s.text(w, http.StatusInternalServerError, err.Error())

		return
	}

	pages, err := s.builder.Pages()
	if err != nil {
		s.log.WarnContext(ctx, "no site map", slog.Any("error", err))
	}

	for _, name := range candidates(r.URL.Path) {
		if p, ok := s.findPage(pages, name); ok {
			s.serveTemplate(w, r, p, name)

			return
		}
	}

	for _, name := range candidates(r.URL.Path) {
		if file, ok := s.findFile(pages, name); ok {
			s.serveFile(w, r, file, name)

			return
		}
	}

	s.log.InfoContext(ctx, "not found", attr)
	s.text(w, http.StatusNotFound, "Not Found")
}

// candidates lists the site paths a request path may refer to.
func candidates(urlPath string) []string {
	p := strings.Trim(path.Clean("/"+urlPath), "/")
	if p == "" {
		return []string{"index.html"}
	}

	return []string{p, p + "/index.html"}
}

func (s *Server) findPage(pages []lib.PageInfo, name string) (lib.PageInfo, bool) {
	for _, p := range pages {
		if p.Type == lib.PageTemplate && p.WebPath == name {
			return p, true
		}
	}

	return lib.PageInfo{}, false
}

// findFile returns the source of the copied file served at name, or the
// built file in dist.
func (s *Server) findFile(pages []lib.PageInfo, name string) (string, bool) {
	dest := filepath.Join(s.builder.Dist(), filepath.FromSlash(name))

	for _, p := range pages {
		if p.Type == lib.PageCopy && filepath.Clean(p.Dest) == dest {
			return p.Src, true
		}
	}

	info, err := os.Stat(dest)
	if err != nil || info.IsDir() {
		return "", false
	}

	return dest, true
}

func (s *Server) serveTemplate(w http.ResponseWriter, r *http.Request, p lib.PageInfo, name string) {
	out, err := s.builder.Render(p)
	if err != nil {
		s.log.ErrorContext(r.Context(), "render failed", slog.Any("error", err))
		s.text(w, http.StatusInternalServerError, "Template evaluation failed:\n\n"+err.Error())

		return
	}

	typ := contentType(name)
	if path.Ext(name) == "" {
		typ = contentType(".html")
	}

	s.log.DebugContext(r.Context(), "rendered", slog.String("page", name))
	s.write(w, typ, []byte(out))
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, file, name string) {
	data, err := os.ReadFile(file)
	if err != nil {
		s.log.ErrorContext(r.Context(), "read failed", slog.Any("error", err))
		s.text(w, http.StatusInternalServerError, err.Error())

		return
	}

	s.log.DebugContext(r.Context(), "served", slog.String("file", file))
	s.write(w, contentType(name), data)
}

func (s *Server) text(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(msg)))
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

func (s *Server) write(w http.ResponseWriter, typ string, data []byte) {
	w.Header().Set("Content-Type", typ)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// contentType returns the media type for the extension of name.
func contentType(name string) string {
	ext := strings.ToLower(path.Ext(name))

	switch ext {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case "":
		return "application/octet-stream"
	}

	if typ := mime.TypeByExtension(ext); typ != "" {
		return typ
	}

	return "application/octet-stream"
}
