package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// newSite scaffolds a site into a temporary directory.
func newSite(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for _, f := range scaffold {
		writeFile(t, dir, f.name, f.content)
	}

	return dir
}

func TestBuild(t *testing.T) {
	dir := newSite(t)
	nested := filepath.Join(dir, "templates")

	if err := (&Build{Project{Dir: nested, RootPath: "/blog"}}).Run(t.Context()); err != nil {
		t.Fatal(err)
	}

	index, err := os.ReadFile(filepath.Join(dir, "dist", "index.html"))
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"<title>My site</title>", "<h1>Hello, world!</h1>", `href="/blog/static/style.css"`} {
		if !strings.Contains(string(index), want) {
			t.Errorf("index.html missing %q:\n%s", want, index)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "dist", "static", "style.css")); err != nil {
		t.Errorf("static file not copied: %v", err)
	}
}

func TestBuildDist(t *testing.T) {
	dir := newSite(t)
	dist := filepath.Join(t.TempDir(), "public")

	if err := (&Build{Project{Dir: dir, RootPath: "/", Dist: dist}}).Run(t.Context()); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dist, "index.html")); err != nil {
		t.Errorf("index.html not written to --dist: %v", err)
	}
}

func TestBuildWithoutProject(t *testing.T) {
	if err := (&Build{Project{Dir: t.TempDir(), RootPath: "/"}}).Run(t.Context()); err == nil {
		t.Error("build outside a project succeeded")
	}
}

func TestClean(t *testing.T) {
	dir := newSite(t)
	p := Project{Dir: dir, RootPath: "/"}

	if err := (&Build{p}).Run(t.Context()); err != nil {
		t.Fatal(err)
	}

	if err := (&Clean{p}).Run(t.Context()); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "dist")); !os.IsNotExist(err) {
		t.Errorf("dist still exists: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "index.plet")); err != nil {
		t.Errorf("project removed: %v", err)
	}

	// Cleaning a site whose output directory contains the project is refused.
	p.Dist = filepath.Dir(dir)

	err := (&Clean{p}).Run(t.Context())
	if err == nil || !strings.Contains(err.Error(), "remove output directory") {
		t.Errorf("clean of a parent directory = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "index.plet")); err != nil {
		t.Errorf("project removed: %v", err)
	}
}

func TestWatch(t *testing.T) {
	dir := newSite(t)
	dist := filepath.Join(dir, "dist", "index.html")

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)

	go func() {
		done <- (&Watch{Project: Project{Dir: dir, RootPath: "/"}, Interval: 10 * time.Millisecond}).Run(ctx)
	}()

	waitFor(t, func() bool {
		data, err := os.ReadFile(dist)

		return err == nil && strings.Contains(string(data), "Hello, world!")
	})

	writeFile(t, dir, "templates/index.html", "{LAYOUT = 'layout.html'}<h1>{heading}, again</h1>\n")

	// Keep the new modification time distinct from the first build.
	later := time.Now().Add(time.Second)
	if err := os.Chtimes(filepath.Join(dir, "templates", "index.html"), later, later); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		data, err := os.ReadFile(dist)

		return err == nil && strings.Contains(string(data), "Hello, world!, again")
	})

	cancel()

	if err := <-done; err != nil {
		t.Errorf("watch = %v, want nil after cancel", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out")
		}

		time.Sleep(10 * time.Millisecond)
	}
}

func TestServe(t *testing.T) {
	dir := newSite(t)

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	s := &Serve{Project: Project{Dir: dir, RootPath: "/"}, Host: "127.0.0.1", Port: 0}
	if err := s.Run(ctx); err != nil {
		t.Errorf("serve = %v, want nil after cancel", err)
	}
}

func TestLipsum(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		ctx, out := capture(t)

		if err := (&Lipsum{Count: 1}).Run(ctx); err != nil {
			t.Fatal(err)
		}

		if out.Len() == 0 {
			t.Error("no content printed")
		}
	})

	t.Run("dir", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "lipsum-001.md", "keep")

		if err := (&Lipsum{Count: 3, Dir: dir}).Run(t.Context()); err != nil {
			t.Fatal(err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}

		if len(entries) != 4 {
			t.Errorf("%d files, want 4", len(entries))
		}

		if data, _ := os.ReadFile(filepath.Join(dir, "lipsum-001.md")); string(data) != "keep" {
			t.Error("existing file overwritten")
		}
	})
}
