package site

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ardnew/plet/log"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()

	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return p
}

// touch moves the modification time of p forward so changes are seen even
// on file systems with coarse timestamps.
func touch(t *testing.T, p string, d time.Duration) {
	t.Helper()

	mt := time.Now().Add(d)
	if err := os.Chtimes(p, mt, mt); err != nil {
		t.Fatal(err)
	}
}

const script = `
export title = 'Home'
add_page('index.html', 'templates/index.html')
add_page('about/index.html', 'templates/about.html', {who: 'us'})
add_page('broken.html', 'templates/broken.html')
add_static('static')
`

func newProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	write(t, dir, ScriptName, script)
	write(t, dir, "templates/layout.html", "<body>{CONTENT}</body>")
	write(t, dir, "templates/index.html", "{LAYOUT = 'layout.html'}<h1>{title}</h1>")
	write(t, dir, "templates/about.html", "about {who} at {link('about/index.html')}")
	write(t, dir, "templates/broken.html", "{undefined_name}")
	write(t, dir, "static/style.css", "body{}")
	write(t, dir, "static/.hidden", "secret")

	return dir
}

func newBuilder(t *testing.T, dir string, opts ...Option) *Builder {
	t.Helper()

	b := New(dir, append([]Option{WithLogger(log.Make(nil))}, opts...)...)
	t.Cleanup(b.Close)

	return b
}

func TestFindRoot(t *testing.T) {
	dir := newProject(t)
	nested := filepath.Join(dir, "templates")

	root, err := FindRoot(nested)
	if err != nil {
		t.Fatal(err)
	}

	want, _ := filepath.Abs(dir)
	if root != want {
		t.Errorf("FindRoot = %s, want %s", root, want)
	}

	if _, err := FindRoot(t.TempDir()); !errors.Is(err, ErrNoProject) {
		t.Errorf("FindRoot without project = %v", err)
	}
}

func TestBuilderRun(t *testing.T) {
	dir := newProject(t)
	b := newBuilder(t, dir, WithRootPath("/site"))

	err := b.Run(t.Context())
	if !errors.Is(err, ErrBuild) {
		t.Fatalf("Run = %v, want a build error for the broken page", err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"index.html", "<body><h1>Home</h1></body>"},
		{"about/index.html", "about us at /site/about"},
		{"static/style.css", "body{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join(dir, DistName, filepath.FromSlash(tt.name)))
			if err != nil {
				t.Fatal(err)
			}

			if got := string(data); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, DistName, "static", ".hidden")); !os.IsNotExist(err) {
		t.Errorf("dotfile copied: %v", err)
	}
}

func TestBuilderStale(t *testing.T) {
	dir := newProject(t)
	b := newBuilder(t, dir)

	if !b.Stale() {
		t.Error("new builder is not stale")
	}

	if err := b.Refresh(t.Context()); err != nil {
		t.Fatal(err)
	}

	if b.Stale() {
		t.Error("builder stale right after refresh")
	}

	touch(t, filepath.Join(dir, ScriptName), time.Minute)

	if !b.Stale() {
		t.Error("builder not stale after the script changed")
	}
}

func get(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequestWithContext(t.Context(), method, target, nil))

	return rec
}

func TestServer(t *testing.T) {
	dir := newProject(t)
	s := NewServer(newBuilder(t, dir))
	s.now = func() time.Time { return time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC) }

	tests := []struct {
		name   string
		method string
		target string
		status int
		typ    string
		body   string
	}{
		{"root", http.MethodGet, "/", http.StatusOK, "text/html; charset=utf-8", "<body><h1>Home</h1></body>"},
		{"directory", http.MethodGet, "/about/", http.StatusOK, "text/html; charset=utf-8", "about us at about"},
		{"index", http.MethodGet, "/about/index.html", http.StatusOK, "text/html; charset=utf-8", "about us at about"},
		{"static", http.MethodGet, "/static/style.css", http.StatusOK, "text/css; charset=utf-8", "body{}"},
		{"dotfile", http.MethodGet, "/static/.hidden", http.StatusNotFound, "text/plain; charset=utf-8", "Not Found"},
		{"missing", http.MethodGet, "/nope", http.StatusNotFound, "text/plain; charset=utf-8", "Not Found"},
		{"post", http.MethodPost, "/", http.StatusMethodNotAllowed, "text/plain; charset=utf-8", "Method Not Allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.method, tt.target)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}

			if got := rec.Header().Get("Content-Type"); got != tt.typ {
				t.Errorf("Content-Type = %q, want %q", got, tt.typ)
			}

			if got := rec.Body.String(); got != tt.body {
				t.Errorf("body = %q, want %q", got, tt.body)
			}

			if got := rec.Header().Get("Date"); got != "Thu, 04 Mar 2021 05:06:07 GMT" {
				t.Errorf("Date = %q", got)
			}
		})
	}

	if got := get(t, s, http.MethodPost, "/").Header().Get("Allow"); got != http.MethodGet {
		t.Errorf("Allow = %q", got)
	}

	if _, err := os.Stat(filepath.Join(dir, DistName, "index.html")); !os.IsNotExist(err) {
		t.Errorf("serving wrote to dist: %v", err)
	}
}

func TestServerTemplateError(t *testing.T) {
	s := NewServer(newBuilder(t, newProject(t)))

	rec := get(t, s, http.MethodGet, "/broken.html")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}

	if !strings.HasPrefix(rec.Body.String(), "Template evaluation failed") {
		t.Errorf("body = %q", rec.Body.String())
	}

	// Repeated failures do not accumulate in the session.
	n := len(s.builder.session.Diagnostics())
	for range 5 {
		get(t, s, http.MethodGet, "/broken.html")
	}

	if got := len(s.builder.session.Diagnostics()); got != n {
		t.Errorf("diagnostics grew from %d to %d", n, got)
	}
}

func TestServerRebuild(t *testing.T) {
	dir := newProject(t)
	s := NewServer(newBuilder(t, dir))

	if body := get(t, s, http.MethodGet, "/").Body.String(); !strings.Contains(body, "Home") {
		t.Fatalf("body = %q", body)
	}

	p := write(t, dir, ScriptName, strings.Replace(script, "'Home'", "'Changed'", 1))
	touch(t, p, time.Minute)

	if body := get(t, s, http.MethodGet, "/").Body.String(); !strings.Contains(body, "Changed") {
		t.Errorf("body after change = %q", body)
	}

	tmpl := write(t, dir, "templates/about.html", "new {who}")
	touch(t, tmpl, 2*time.Minute)

	if body := get(t, s, http.MethodGet, "/about/").Body.String(); body != "new us" {
		t.Errorf("about after change = %q", body)
	}
}

func TestContentType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"index.html", "text/html; charset=utf-8"},
		{"a.HTM", "text/html; charset=utf-8"},
		{"img.png", "image/png"},
		{"noext", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := contentType(tt.name); got != tt.want {
			t.Errorf("contentType(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
