package lib

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ardnew/plet/lang/module"
	"github.com/ardnew/plet/lang/value"
)

// srcPath resolves name against the DIR of env.
func srcPath(name string, env *value.Env) (string, bool) {
	p, err := module.Resolve(name, env)
	if err != nil {
		env.Errorf("%s", err)

		return "", false
	}

	return p, true
}

func rootPath(name string, env *value.Env) (string, bool) {
	root := env.String(name)
	if root == "" {
		env.Errorf("%s missing or not a string", name)

		return "", false
	}

	return root, true
}

// distPath maps a site path into DIST_ROOT. The path cannot escape it.
func distPath(name string, env *value.Env) (string, bool) {
	root, ok := rootPath("DIST_ROOT", env)
	if !ok {
		return "", false
	}

	return filepath.Join(root, filepath.FromSlash(path.Clean("/"+name))), true
}

// TrimIndex drops a trailing index.html so links point at directories.
func TrimIndex(p string) string {
	if p == "index.html" {
		return ""
	}

	if s, ok := strings.CutSuffix(p, "/index.html"); ok {
		return s
	}

	return p
}

// JoinURL joins a root path or URL and a site path with exactly one slash.
func JoinURL(root, p string) string {
	if root == "" {
		return p
	}

	return strings.TrimRight(root, "/") + "/" + strings.TrimLeft(p, "/")
}

// WebPath converts a site-relative path into a link. Paths that climb out
// of the site become "#invalid-path". The link is prefixed with ROOT_URL
// when absolute is set and with ROOT_PATH otherwise.
func WebPath(p string, absolute bool, env *value.Env) string {
	p = filepath.ToSlash(p)

	clean := path.Clean("/" + p)
	if rel := path.Clean(p); rel == ".." || strings.HasPrefix(rel, "../") {
		return "#invalid-path"
	}

	if path.Base(clean) == "index.html" {
		clean = path.Dir(clean)
	}

	rootName := "ROOT_PATH"
	if absolute {
		rootName = "ROOT_URL"
	}

	root := env.String(rootName)

	switch {
	case clean != "/":
		return JoinURL(root, clean)
	case root != "":
		return root
	}

	return "/"
}

// link prefixes a site path with ROOT_PATH (or ROOT_URL).
func link(p string, absolute bool, env *value.Env) string {
	rootName := "ROOT_PATH"
	if absolute {
		rootName = "ROOT_URL"
	}

	p = TrimIndex(p)
	if root := env.String(rootName); root != "" {
		return JoinURL(root, p)
	}

	return p
}

// isCurrent reports whether p names the page being rendered.
func isCurrent(p string, env *value.Env) bool {
	current, found := env.LookupName("PATH")
	if !found {
		return false
	}

	s, ok := current.(value.String)
	if !ok {
		return false
	}

	return strings.Trim(TrimIndex(p), "/") == strings.Trim(TrimIndex(string(s)), "/")
}

// assetChanged reports whether dest is missing or has a modification time
// other than that of src.
func assetChanged(src, dest string) bool {
	s, err := os.Stat(src)
	if err != nil {
		return true
	}

	d, err := os.Stat(dest)

	return err != nil || !d.ModTime().Equal(s.ModTime())
}

// CopyChanged copies src to dest unless dest has the same modification
// time, creating parent directories as needed. dest receives the
// modification time of src.
func CopyChanged(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !assetChanged(src, dest) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()

		return err
	}

	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dest, info.ModTime(), info.ModTime())
}
