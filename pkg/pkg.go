// Package pkg holds the identity of the program.
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

const (
	Name        = "plet"
	Description = "Static site generator driven by a small templating language"
)

// Version returns the semantic version embedded at build time.
func Version() string { return strings.TrimSpace(version) }
