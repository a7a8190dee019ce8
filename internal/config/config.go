// Package config loads the docversions YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

// DefaultConfigFile is the file looked up when --config is not given.
const DefaultConfigFile = "docversions.yaml"

// Config is the complete docversions configuration.
type Config struct {
	DataDir    string           `yaml:"data_dir"`
	OutputDir  string           `yaml:"output_dir"`
	Versioning VersioningConfig `yaml:"versioning"`
	Builder    BuilderConfig    `yaml:"builder"`
	Git        GitConfig        `yaml:"git"`
	History    HistoryConfig    `yaml:"history"`
	Notify     NotifyConfig     `yaml:"notify"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Serve      ServeConfig      `yaml:"serve"`
	Watch      WatchConfig      `yaml:"watch"`
}

// VersioningConfig selects which versions are built.
type VersioningConfig struct {
	Strategy       VersioningStrategy `yaml:"strategy"`
	BranchPatterns []string           `yaml:"branch_patterns,omitempty"` // glob patterns; empty means all
	TagPatterns    []string           `yaml:"tag_patterns,omitempty"`
}

// BuilderConfig selects and parameterizes the documentation generator.
type BuilderConfig struct {
	Kind    BuilderKind  `yaml:"kind"`
	Marker  string       `yaml:"marker,omitempty"`  // command builder: file that marks the docs directory
	Command []string     `yaml:"command,omitempty"` // command builder: argv template
	Sphinx  SphinxConfig `yaml:"sphinx,omitempty"`
}

// SphinxConfig controls the sphinx builder.
type SphinxConfig struct {
	Virtualenv bool   `yaml:"virtualenv"`       // prepare an isolated environment per requirements set
	Python     string `yaml:"python,omitempty"` // interpreter used to create environments
	Executable string `yaml:"executable,omitempty"`
}

// GitConfig holds clone/fetch settings.
type GitConfig struct {
	Auth              *AuthConfig      `yaml:"auth,omitempty"`
	MaxRetries        int              `yaml:"max_retries"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay string           `yaml:"retry_initial_delay"`
	RetryMaxDelay     string           `yaml:"retry_max_delay"`
}

// HistoryConfig controls the SQLite run history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"` // defaults to <data_dir>/history.db
}

// NotifyConfig controls completion notifications. Empty URL disables them.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MetricsConfig controls metrics export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"` // Prometheus textfile written after each run
}

// ServeConfig controls periodic rebuilds.
type ServeConfig struct {
	Interval string `yaml:"interval"`
}

// WatchConfig controls working tree watching.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configPath. A missing file yields defaults; a file that exists but
// cannot be parsed or validated is a config error.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").
				Fatal().
				WithContext("path", configPath).
				Build()
		}
	}

	res := NormalizeConfig(cfg)
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
	}
	applyDefaults(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RetryDelays returns the parsed initial and max retry delays. Invalid values yield zero.
func (g GitConfig) RetryDelays() (time.Duration, time.Duration) {
	initial, _ := time.ParseDuration(g.RetryInitialDelay)
	maxDelay, _ := time.ParseDuration(g.RetryMaxDelay)
	return initial, maxDelay
}

// IntervalDuration returns the parsed serve interval.
func (s ServeConfig) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(s.Interval)
	return d
}

// DebounceDuration returns the parsed watch debounce.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(w.Debounce)
	return d
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.Versioning.TagPatterns = []string{"v*"}
	example.Builder.Sphinx.Virtualenv = true
	example.History.Enabled = true
	example.Notify = NotifyConfig{NATSURL: "nats://127.0.0.1:4222", Subject: "docversions.runs"}

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
