package config

import "strings"

// VersioningStrategy selects which version categories a session builds.
type VersioningStrategy string

const (
	StrategyAll             VersioningStrategy = "all" // working tree (when present), branches, tags
	StrategyBranchesAndTags VersioningStrategy = "branches_and_tags"
	StrategyBranchesOnly    VersioningStrategy = "branches_only"
	StrategyTagsOnly        VersioningStrategy = "tags_only"
	StrategyWorkingtreeOnly VersioningStrategy = "workingtree_only"
)

// NormalizeVersioningStrategy returns a canonical typed strategy or empty string if unknown.
func NormalizeVersioningStrategy(raw string) VersioningStrategy {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	switch VersioningStrategy(s) {
	case StrategyAll, StrategyBranchesAndTags, StrategyBranchesOnly, StrategyTagsOnly, StrategyWorkingtreeOnly:
		return VersioningStrategy(s)
	default:
		return ""
	}
}
