package commands

import (
	"context"
	"time"

	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/daemon"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Worktree string `arg:"" optional:"" default:"." help:"Working tree to watch"`
	Debounce string `help:"Quiet period before a rebuild (overrides watch.debounce)"`

	BuildFlags `embed:""`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, &w.BuildFlags)
	if err != nil {
		return err
	}
	// only the working tree changes on disk; branches and tags are left to build/serve
	cfg.Versioning.Strategy = config.StrategyWorkingtreeOnly
	debounce := cfg.Watch.DebounceDuration()
	if w.Debounce != "" {
		d, parseErr := time.ParseDuration(w.Debounce)
		if parseErr != nil || d <= 0 {
			return errors.ValidationError("invalid --debounce").WithContext("value", w.Debounce).Build()
		}
		debounce = d
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	run := func(ctx context.Context) error {
		res, runErr := rt.run(ctx, w.Worktree, w.Ephemeral)
		if runErr == nil {
			printResult(g.out(), res)
		}
		return runErr
	}
	watcher, err := daemon.NewWatcher(w.Worktree, debounce, run, cfg.OutputDir, cfg.DataDir)
	if err != nil {
		return err
	}
	return watcher.Run(g.ctx())
}
