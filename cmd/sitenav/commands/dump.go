package commands

import (
	"fmt"

	"git.home.luguber.info/inful/sitenav/internal/config"
	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
)

// DumpCmd implements the 'dump' command.
type DumpCmd struct {
	Fingerprint bool `help:"Print only the configuration fingerprint"`
}

func (d *DumpCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	if d.Fingerprint {
		_, err = fmt.Fprintln(g.out(), cfg.Fingerprint())
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	if _, err := g.out().Write(data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to write configuration").Build()
	}
	return nil
}
