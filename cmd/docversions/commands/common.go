package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

// Global carries process-wide state into subcommands.
type Global struct {
	Context context.Context
	Out     io.Writer
}

func (g *Global) ctx() context.Context {
	if g == nil || g.Context == nil {
		return context.Background()
	}
	return g.Context
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docversions.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build documentation for every selected branch and tag"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild the working tree documentation on file changes"`
	Serve   ServeCmd   `cmd:"" help:"Rebuild periodically"`
	History HistoryCmd `cmd:"" help:"Show recorded build sessions"`
	Cache   CacheCmd   `cmd:"" help:"List the build cache of a repository"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honours --verbose first, then DOCVERSIONS_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DOCVERSIONS_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// BuildFlags override configuration values for commands that run sessions.
type BuildFlags struct {
	DataDir     string `name:"data-dir" short:"d" help:"Directory holding clones, cache and history"`
	Output      string `name:"output" short:"o" help:"Output root for generated documentation"`
	Strategy    string `name:"strategy" help:"Versions to build (all|branches_and_tags|branches_only|tags_only|workingtree_only)"`
	Builder     string `name:"builder" help:"Documentation generator (sphinx|command|markdown)"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this textfile after each session"`
	Ephemeral   bool   `name:"ephemeral" help:"Use a throwaway workspace instead of the data directory"`
}

// apply copies non-empty flags into cfg. Flags win over the file.
func (f *BuildFlags) apply(cfg *config.Config) error {
	if f.DataDir != "" {
		derived := filepath.Join(cfg.DataDir, "history.db")
		cfg.DataDir = f.DataDir
		if cfg.History.Path == derived {
			cfg.History.Path = filepath.Join(f.DataDir, "history.db")
		}
	}
	if f.Output != "" {
		cfg.OutputDir = f.Output
	}
	if f.Strategy != "" {
		s := config.NormalizeVersioningStrategy(f.Strategy)
		if s == "" {
			return errors.ValidationError("unknown --strategy").WithContext("value", f.Strategy).Build()
		}
		cfg.Versioning.Strategy = s
	}
	if f.Builder != "" {
		k := config.NormalizeBuilderKind(f.Builder)
		if k == "" {
			return errors.ValidationError("unknown --builder").WithContext("value", f.Builder).Build()
		}
		cfg.Builder.Kind = k
		if k == config.BuilderCommand && cfg.Builder.Marker == "" {
			cfg.Builder.Marker = "conf.py"
		}
	}
	if f.MetricsFile != "" {
		cfg.Metrics.Textfile = f.MetricsFile
	}
	return config.ValidateConfig(cfg)
}

func loadConfig(root *CLI, flags *BuildFlags) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if flags != nil {
		if err := flags.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
