package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/plet/cli/cmd"
	"github.com/ardnew/plet/pkg"
)

// CLI is the top-level command-line interface for plet.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Build cmd.Build `cmd:"" default:"1" help:"Build the site into its output directory."`
	Serve cmd.Serve `cmd:""             help:"Preview the site over HTTP."`
	Watch cmd.Watch `cmd:""             help:"Rebuild the site whenever its sources change."`
	Clean cmd.Clean `cmd:""             help:"Remove the output directory."`

	Init   cmd.Init   `cmd:"" help:"Create a new site and configuration file."`
	Eval   cmd.Eval   `cmd:"" help:"Evaluate a script or template and print its value."`
	Fmt    cmd.Fmt    `cmd:"" help:"Convert data files or print syntax trees."`
	Repl   cmd.Repl   `cmd:"" help:"Start an interactive session."`
	Lipsum cmd.Lipsum `cmd:"" help:"Generate placeholder markdown content."`

	Version cmd.Version `cmd:"" help:"Print the version."`
}

// Run executes the plet CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := pkg.MkdirAll(); err != nil {
		return err
	}

	configFile := pkg.ConfigFile()

	vars := kong.Vars{
		cmd.ConfigIdentifier:  configFile,
		cmd.HistoryIdentifier: pkg.HistoryFile(),
		cmd.PortVar:           cmd.DefaultPort,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Configure the logger before kong reports anything, whatever the
	// position of the logging flags.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFile+".json"),
		kong.Configuration(resolve(configFile), configFile),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)

	defer cli.Log.start(ctx)()

	// No-op unless built with tag pprof and a mode is selected.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
