package config

import (
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

// ValidateConfig checks a normalized, defaulted configuration.
func ValidateConfig(c *Config) error {
	if NormalizeVersioningStrategy(string(c.Versioning.Strategy)) == "" {
		return invalid("unknown versioning strategy", "versioning.strategy", c.Versioning.Strategy)
	}
	for _, p := range append(append([]string{}, c.Versioning.BranchPatterns...), c.Versioning.TagPatterns...) {
		if _, err := filepath.Match(p, ""); err != nil {
			return invalid("malformed ref pattern", "versioning.patterns", p)
		}
	}

	switch c.Builder.Kind {
	case BuilderSphinx, BuilderMarkdown:
	case BuilderCommand:
		if len(c.Builder.Command) == 0 {
			return invalid("command builder requires builder.command", "builder.command", nil)
		}
	default:
		return invalid("unknown builder kind", "builder.kind", c.Builder.Kind)
	}

	if c.Git.Auth != nil {
		switch c.Git.Auth.Type {
		case "", AuthTypeNone, AuthTypeSSH, AuthTypeBasic:
		case AuthTypeToken:
			if c.Git.Auth.Token == "" {
				return invalid("token auth requires git.auth.token", "git.auth.token", nil)
			}
		default:
			return invalid("unknown auth type", "git.auth.type", c.Git.Auth.Type)
		}
	}

	for field, raw := range map[string]string{
		"git.retry_initial_delay": c.Git.RetryInitialDelay,
		"git.retry_max_delay":     c.Git.RetryMaxDelay,
		"serve.interval":          c.Serve.Interval,
		"watch.debounce":          c.Watch.Debounce,
	} {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return invalid("invalid duration", field, raw)
		}
	}
	return nil
}

func invalid(msg, field string, value any) error {
	b := errors.ConfigError(msg).WithContext("field", field)
	if value != nil {
		b = b.WithContext("value", value)
	}
	return b.Build()
}
