package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/sitenav/internal/config"
	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
	"git.home.luguber.info/inful/sitenav/internal/logfields"
	"git.home.luguber.info/inful/sitenav/internal/navcheck"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Strict bool   `help:"Treat warnings as errors (also enabled by strict: true in the configuration)"`
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
}

func (v *ValidateCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	strict := v.Strict || cfg.Strict

	result := navcheck.Check(cfg, root.baseDir())
	slog.Debug("Navigation checked",
		logfields.ConfigPath(root.Config),
		logfields.Leaves(result.NavLeaves),
		logfields.Nodes(result.NavNodes),
		slog.Int("issues", len(result.Issues)))

	if err := navcheck.NewFormatter(v.Format).Format(g.out(), result, root.Config, strict); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to write check results").Build()
	}
	if result.Failed(strict) {
		return ferrors.ValidationError("navigation check failed").
			WithContext(config.ContextConfigPath, root.Config).
			WithContext("errors", result.ErrorCount()).
			WithContext("warnings", result.WarningCount()).
			Build()
	}
	return nil
}
