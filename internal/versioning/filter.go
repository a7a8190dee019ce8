package versioning

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
)

// Filter selects ref names by glob pattern. An empty filter matches everything.
type Filter struct {
	patterns []string
}

// NewFilter returns a filter over patterns.
func NewFilter(patterns []string) Filter { return Filter{patterns: patterns} }

// Match checks if a name matches any of the patterns.
func (f Filter) Match(name string) bool {
	if len(f.patterns) == 0 {
		return true // No patterns means match all
	}
	for _, pattern := range f.patterns {
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			slog.Warn("Invalid pattern", slog.String("pattern", pattern), slog.String("error", err.Error()))
			continue
		}
		if matched {
			return true
		}
		// '*' in filepath.Match stops at '/'; also let it span nested names like release/1/x
		if strings.Contains(pattern, "*") {
			parts := strings.Split(pattern, "*")
			for i, p := range parts {
				parts[i] = regexp.QuoteMeta(p)
			}
			if ok, _ := regexp.MatchString("^"+strings.Join(parts, ".*")+"$", name); ok {
				return true
			}
		}
	}
	return false
}

// Apply returns the matching names, keeping their order.
func (f Filter) Apply(names []string) []string {
	if len(f.patterns) == 0 {
		return names
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if f.Match(n) {
			out = append(out, n)
		}
	}
	return out
}
