package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/csmon/cmd/csmon/commands"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{}
	ctx := kong.Parse(&cli,
		kong.Name("csmon"),
		kong.Description("Background checksum integrity monitor"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := ctx.Run(global, &cli); err != nil {
		adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger)
		adapter.Log(err)
		fmt.Fprintln(os.Stderr, adapter.FormatError(err))
		os.Exit(adapter.ExitCodeFor(err))
	}
}
