// Command sitenav loads MkDocs-style site configurations, checks their
// navigation and keeps them loaded while they change.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitenav/cmd/sitenav/commands"
	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
	"git.home.luguber.info/inful/sitenav/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Out: os.Stdout}

	ctx := kong.Parse(cli,
		kong.Name("sitenav"),
		kong.Description("Load, check and watch MkDocs-style documentation site configurations."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := ctx.Run(); err != nil {
		adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		os.Exit(adapter.Report(os.Stderr, err))
	}
}
