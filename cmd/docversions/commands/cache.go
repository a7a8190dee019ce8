package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/docversions/internal/cache"
	"git.home.luguber.info/inful/docversions/internal/git"
	"git.home.luguber.info/inful/docversions/internal/workspace"
)

// CacheCmd implements the 'cache' command.
type CacheCmd struct {
	Location string `arg:"" optional:"" default:"." help:"Repository URL or path to a working tree"`
	DataDir  string `name:"data-dir" short:"d" help:"Directory holding clones, cache and history"`
	JSON     bool   `name:"json" help:"Print JSON instead of a table"`
}

func (c *CacheCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, &BuildFlags{DataDir: c.DataDir})
	if err != nil {
		return err
	}
	ws := workspace.NewPersistentManager(cfg.DataDir)
	repo, err := git.NewClient(ws.ClonesDir()).Identify(c.Location)
	if err != nil {
		return err
	}
	table, err := cache.Open(ws.CacheDir(), repo.UniqueName)
	if err != nil {
		return err
	}
	// read-only: the table is never closed, so nothing is written back
	entries := table.Entries()
	if c.JSON {
		return writeJSON(g.out(), entries)
	}

	_, _ = fmt.Fprintf(g.out(), "repository: %s (%s)\ncache: %s\n", repo.UniqueName, repo.URL, table.Path())
	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "COMMIT\tLIVE\tPATH")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%t\t%s\n", e.Commit, e.Live, e.Path)
	}
	return tw.Flush()
}
