package git

import (
	"crypto/sha1" // #nosec G505 - short content-addressed directory names, not a security boundary
	"encoding/hex"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// uniqueHashLen is the number of hex digits of the URL digest kept in unique names.
const uniqueHashLen = 6

// Repository is a handle on one project's clone.
type Repository struct {
	UniqueName      string // <project>-<6 hex of sha1(URL)>
	URL             string // canonical remote URL
	ClonePath       string // <clone_root>/<unique_name>
	WorkingTreePath string // the user's working tree; empty when the tool was given a URL

	repo *gogit.Repository
}

// HasWorkingTree reports whether the session was started from a local working tree.
func (r *Repository) HasWorkingTree() bool { return r.WorkingTreePath != "" }

// Digest maps a canonical URL to a hex digest.
type Digest func(string) string

// SHA1Digest is the default Digest.
func SHA1Digest(s string) string {
	sum := sha1.Sum([]byte(s)) // #nosec G401
	return hex.EncodeToString(sum[:])
}

// NameResolver derives clone directory names from remote URLs.
type NameResolver struct {
	digest Digest
}

// NewNameResolver returns a resolver using digest, or SHA1Digest when nil.
func NewNameResolver(digest Digest) *NameResolver {
	if digest == nil {
		digest = SHA1Digest
	}
	return &NameResolver{digest: digest}
}

// UniqueName returns "<project>-<first 6 hex digits of digest(canonical url)>".
// Two URLs collide only when the project names match and the truncated digests match.
func (r *NameResolver) UniqueName(url string) string {
	canonical := CanonicalURL(url)
	sum := r.digest(canonical)
	if len(sum) > uniqueHashLen {
		sum = sum[:uniqueHashLen]
	}
	return ProjectName(canonical) + "-" + sum
}

// CanonicalURL trims surrounding whitespace and trailing slashes.
func CanonicalURL(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}

// ProjectName returns the last path segment of url without a ".git" suffix.
// It understands https, scp-like ssh (git@host:org/repo.git), file:// and plain paths.
func ProjectName(url string) string {
	u := CanonicalURL(url)
	if i := strings.LastIndexAny(u, "/\\:"); i >= 0 {
		u = u[i+1:]
	}
	u = strings.TrimSuffix(u, ".git")
	if u == "" {
		return "repository"
	}
	return u
}
