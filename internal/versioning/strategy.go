package versioning

import "git.home.luguber.info/inful/docversions/internal/config"

// Includes reports whether strategy covers versions of type t.
func Includes(strategy config.VersioningStrategy, t Type) bool {
	switch strategy {
	case config.StrategyBranchesAndTags:
		return t == TypeBranch || t == TypeTag
	case config.StrategyBranchesOnly:
		return t == TypeBranch
	case config.StrategyTagsOnly:
		return t == TypeTag
	case config.StrategyWorkingtreeOnly:
		return t == TypeWorkingTree
	default: // all
		return true
	}
}
