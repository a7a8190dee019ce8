package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes enumerated fields prior to default application.
// Unknown enumerations are left in place for ValidateConfig to reject.
func NormalizeConfig(c *Config) *NormalizationResult {
	res := &NormalizationResult{}
	if c == nil {
		return res
	}
	c.DataDir = strings.TrimSpace(c.DataDir)
	c.OutputDir = strings.TrimSpace(c.OutputDir)
	normalizeVersioning(&c.Versioning, res)
	normalizeBuilder(&c.Builder, res)
	normalizeGit(&c.Git, res)
	return res
}

func normalizeVersioning(v *VersioningConfig, res *NormalizationResult) {
	if st := NormalizeVersioningStrategy(string(v.Strategy)); st != "" {
		if v.Strategy != st {
			res.Warnings = append(res.Warnings, warnChanged("versioning.strategy", v.Strategy, st))
			v.Strategy = st
		}
	} else if strings.TrimSpace(string(v.Strategy)) != "" {
		res.Warnings = append(res.Warnings, fmt.Sprintf("invalid versioning.strategy '%s' (will fail validation)", v.Strategy))
	}
	v.BranchPatterns = trimStringSlice(v.BranchPatterns)
	v.TagPatterns = trimStringSlice(v.TagPatterns)
}

func normalizeBuilder(b *BuilderConfig, res *NormalizationResult) {
	if k := NormalizeBuilderKind(string(b.Kind)); k != "" {
		if b.Kind != k {
			res.Warnings = append(res.Warnings, warnChanged("builder.kind", b.Kind, k))
			b.Kind = k
		}
	} else if strings.TrimSpace(string(b.Kind)) != "" {
		res.Warnings = append(res.Warnings, fmt.Sprintf("invalid builder.kind '%s' (will fail validation)", b.Kind))
	}
	b.Marker = strings.TrimSpace(b.Marker)
}

func normalizeGit(g *GitConfig, res *NormalizationResult) {
	if g.MaxRetries < 0 {
		g.MaxRetries = 0
	}
	if rb := NormalizeRetryBackoff(string(g.RetryBackoff)); rb != "" {
		if g.RetryBackoff != rb {
			res.Warnings = append(res.Warnings, warnChanged("git.retry_backoff", g.RetryBackoff, rb))
			g.RetryBackoff = rb
		}
	} else if strings.TrimSpace(string(g.RetryBackoff)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("git.retry_backoff", string(g.RetryBackoff), string(RetryBackoffLinear)))
		g.RetryBackoff = RetryBackoffLinear
	}
	if g.Auth != nil {
		g.Auth.Type = AuthType(strings.ToLower(strings.TrimSpace(string(g.Auth.Type))))
	}
}

// trimStringSlice removes empty entries (after trimming whitespace) from a string slice.
// Does not dedupe or sort. Use this for order-sensitive configuration fields.
func trimStringSlice(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if tp := strings.TrimSpace(p); tp != "" {
			out = append(out, tp)
		}
	}
	return out
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
