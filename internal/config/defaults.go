package config

import "path/filepath"

const (
	defaultDataDir       = ".docversions"
	defaultOutputDir     = "build"
	defaultNotifySubject = "docversions.runs"
)

// applyDefaults fills zero values. It runs after normalization so canonical
// values drive the defaults.
func applyDefaults(c *Config) {
	if c.DataDir == "" {
		c.DataDir = defaultDataDir
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	if c.Versioning.Strategy == "" {
		c.Versioning.Strategy = StrategyAll
	}
	if c.Builder.Kind == "" {
		c.Builder.Kind = BuilderSphinx
	}
	if c.Builder.Sphinx.Python == "" {
		c.Builder.Sphinx.Python = "python3"
	}
	if c.Builder.Sphinx.Executable == "" {
		c.Builder.Sphinx.Executable = "sphinx-build"
	}
	if c.Builder.Kind == BuilderCommand && c.Builder.Marker == "" {
		c.Builder.Marker = "conf.py"
	}
	if c.Git.RetryBackoff == "" {
		c.Git.RetryBackoff = RetryBackoffLinear
	}
	if c.Git.MaxRetries == 0 {
		c.Git.MaxRetries = 2
	}
	if c.Git.RetryInitialDelay == "" {
		c.Git.RetryInitialDelay = "1s"
	}
	if c.Git.RetryMaxDelay == "" {
		c.Git.RetryMaxDelay = "30s"
	}
	if c.History.Enabled && c.History.Path == "" {
		c.History.Path = filepath.Join(c.DataDir, "history.db")
	}
	if c.Notify.NATSURL != "" && c.Notify.Subject == "" {
		c.Notify.Subject = defaultNotifySubject
	}
	if c.Serve.Interval == "" {
		c.Serve.Interval = "1h"
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = "500ms"
	}
}
