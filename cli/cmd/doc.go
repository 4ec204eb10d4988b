// Package cmd implements the subcommands of the plet command line: building,
// serving and watching a site, evaluating and formatting single sources,
// scaffolding a new project and the interactive REPL.
package cmd

var (
	// ConfigIdentifier is the kong variable identifier containing the path to
	// the user configuration file.
	ConfigIdentifier = "config"

	// HistoryIdentifier is the kong variable identifier containing the path
	// to the REPL history file.
	HistoryIdentifier = "history"
)
