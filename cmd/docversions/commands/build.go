package commands

import (
	"fmt"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Location string `arg:"" optional:"" default:"." help:"Repository URL or path to a working tree"`

	BuildFlags `embed:""`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, &b.BuildFlags)
	if err != nil {
		return err
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.run(g.ctx(), b.Location, b.Ephemeral)
	if err != nil {
		return err
	}
	printResult(g.out(), res)
	if len(res.Failed) > 0 {
		_, _ = fmt.Fprintf(g.out(), "%d version(s) produced no documentation\n", len(res.Failed))
	}
	return nil
}
