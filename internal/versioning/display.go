package versioning

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName creates a human-readable name for the version.
func DisplayName(v Version) string {
	switch v.Type {
	case TypeWorkingTree:
		return "Working tree"
	case TypeTag:
		// tags are usually semantic versions; keep them as-is
		return v.Slug
	}

	switch v.Slug {
	case "main", "master":
		return "Latest"
	case "develop", "development":
		return "Development"
	}
	name := strings.NewReplacer("-", " ", "_", " ").Replace(v.Slug)
	return cases.Title(language.English).String(name)
}
