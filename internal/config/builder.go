package config

import "strings"

// BuilderKind selects the documentation generator.
type BuilderKind string

const (
	BuilderSphinx   BuilderKind = "sphinx"
	BuilderCommand  BuilderKind = "command"
	BuilderMarkdown BuilderKind = "markdown"
)

// NormalizeBuilderKind returns a canonical builder kind or empty string if unknown.
func NormalizeBuilderKind(raw string) BuilderKind {
	switch BuilderKind(strings.ToLower(strings.TrimSpace(raw))) {
	case BuilderSphinx:
		return BuilderSphinx
	case BuilderCommand:
		return BuilderCommand
	case BuilderMarkdown:
		return BuilderMarkdown
	default:
		return ""
	}
}
