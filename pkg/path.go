package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Prefix is the directory name used below the user config and cache
// directories. It is the base name of the executable, except that the
// binaries built by dlv map to [Name] and leading dots are removed.
var Prefix = sync.OnceValue(func() string {
	id := os.Args[0]
	if exe, err := os.Executable(); err == nil {
		id = exe
	}

	id = filepath.Base(id)
	id = strings.TrimSuffix(id, filepath.Ext(id))
	id = regexp.MustCompile(`^__debug_bin\d*$`).ReplaceAllString(id, Name)
	id = strings.TrimLeft(id, ".")

	if id == "" {
		return Name
	}

	return id
})

// userDir returns dir below the first base directory that can be found.
func userDir(base func() (string, error), fallback string) string {
	dir, err := base()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, fallback)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, Prefix())
}

// ConfigDir holds the user configuration, usually $XDG_CONFIG_HOME/plet.
var ConfigDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// CacheDir holds transient files such as the REPL history and profiles.
var CacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// ConfigFile returns the path of the configuration file written in the
// object notation of the language.
func ConfigFile() string { return filepath.Join(ConfigDir(), "config.plet") }

// HistoryFile returns the path of the REPL history.
func HistoryFile() string { return filepath.Join(CacheDir(), "history") }

// MkdirAll creates the config and cache directories.
func MkdirAll() error {
	for _, dir := range []string{ConfigDir(), CacheDir()} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	return nil
}
