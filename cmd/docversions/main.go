package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docversions/cmd/docversions/commands"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("docversions"),
		kong.Description("Build versioned documentation for every branch and tag of a git repository."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := parser.Run(&commands.Global{Context: ctx, Out: os.Stdout}, cli)
	stop()
	if err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
