package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/Aeva/whisperscope/cmd/docshound/commands"
	foundationerrors "github.com/Aeva/whisperscope/internal/foundation/errors"
	"github.com/Aeva/whisperscope/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Must(&cli,
		kong.Name("docshound"),
		kong.Description("Extract flagged doc comments into reStructuredText reference pages."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	global := &commands.Global{Logger: slog.Default(), Out: os.Stdout}
	if err := ctx.Run(global, &cli); err != nil {
		foundationerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
