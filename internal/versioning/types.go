// Package versioning describes the addressable versions of a project and
// decides which of them a build session covers.
package versioning

import (
	"path/filepath"
)

// Type identifies the category of a version.
type Type string

const (
	TypeWorkingTree Type = "workingtree"
	TypeBranch      Type = "branch"
	TypeTag         Type = "tag"
)

// Version describes one buildable version of a project.
type Version struct {
	Type Type
	Slug string // human readable name, also the last part of the output path
	Ref  string // fully qualified upstream ref (refs/heads/x, refs/tags/x); empty for the working tree
}

const (
	branchRefPrefix = "refs/heads/"
	tagRefPrefix    = "refs/tags/"
)

// WorkingTree returns the descriptor of the user's local checkout.
func WorkingTree() Version {
	return Version{Type: TypeWorkingTree, Slug: string(TypeWorkingTree)}
}

// Branch returns the descriptor of a remote branch.
func Branch(name string) Version {
	return Version{Type: TypeBranch, Slug: name, Ref: branchRefPrefix + name}
}

// Tag returns the descriptor of a tag.
func Tag(name string) Version { return Version{Type: TypeTag, Slug: name, Ref: tagRefPrefix + name} }

// OutputPath returns where this version's output lives under root:
// <root>/workingtree, <root>/branches/<slug> or <root>/tags/<slug>.
//
// Slugs containing '/' nest. git forbids refs "a" and "a/b" coexisting, so
// two branches (or two tags) never map to overlapping directories.
func (v Version) OutputPath(root string) string {
	switch v.Type {
	case TypeBranch:
		return filepath.Join(root, "branches", filepath.FromSlash(v.Slug))
	case TypeTag:
		return filepath.Join(root, "tags", filepath.FromSlash(v.Slug))
	default:
		return filepath.Join(root, string(TypeWorkingTree))
	}
}

// String implements fmt.Stringer.
func (v Version) String() string { return string(v.Type) + ":" + v.Slug }
