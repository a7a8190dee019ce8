package git

import (
	"fmt"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

const remoteRefPrefix = "refs/remotes/" + remoteName + "/"

// ListBranches returns the remote branch names (origin prefix stripped, HEAD
// excluded), sorted by refname like `git branch -r`.
func (c *Client) ListBranches(r *Repository) ([]string, error) {
	repo, err := c.open(r)
	if err != nil {
		return nil, err
	}
	refs, err := repo.References()
	if err != nil {
		return nil, ClassifyGitError(err, "list-branches", r.URL)
	}
	var names []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if !strings.HasPrefix(name, remoteRefPrefix) {
			return nil
		}
		short := strings.TrimPrefix(name, remoteRefPrefix)
		if short == "HEAD" {
			return nil
		}
		names = append(names, short)
		return nil
	})
	if err != nil {
		return nil, ClassifyGitError(err, "list-branches", r.URL)
	}
	sort.Strings(names)
	return names, nil
}

// ListTags returns tag names sorted by refname.
func (c *Client) ListTags(r *Repository) ([]string, error) {
	repo, err := c.open(r)
	if err != nil {
		return nil, err
	}
	iter, err := repo.Tags()
	if err != nil {
		return nil, ClassifyGitError(err, "list-tags", r.URL)
	}
	var names []string
	if err := iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	}); err != nil {
		return nil, ClassifyGitError(err, "list-tags", r.URL)
	}
	sort.Strings(names)
	return names, nil
}

// Checkout switches the clone to ref, discarding local changes and untracked
// files so the tree matches the ref exactly. ref must be fully qualified as
// the upstream names it (refs/heads/<branch> or refs/tags/<tag>): a branch and
// a tag may share a short name.
func (c *Client) Checkout(r *Repository, ref string) error {
	repo, err := c.open(r)
	if err != nil {
		return err
	}
	hash, err := resolveRef(repo, plumbing.ReferenceName(ref))
	if err != nil {
		return errors.NewError(errors.CategoryNotFound, "unknown ref").
			WithCause(err).
			WithContext("ref", ref).
			WithContext("repository", r.UniqueName).
			Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return ClassifyGitError(err, "checkout", r.URL)
	}
	if err := wt.Checkout(&gogit.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return errors.WrapError(err, errors.CategoryGit, "checkout failed").WithContext("ref", ref).Build()
	}
	if err := wt.Reset(&gogit.ResetOptions{Commit: hash, Mode: gogit.HardReset}); err != nil {
		return errors.WrapError(err, errors.CategoryGit, "hard reset failed").WithContext("ref", ref).Build()
	}
	if err := wt.Clean(&gogit.CleanOptions{Dir: true}); err != nil {
		return errors.WrapError(err, errors.CategoryGit, "clean failed").WithContext("ref", ref).Build()
	}
	return nil
}

// resolveRef maps an upstream branch to its remote-tracking ref in the clone
// and peels tags to their commit.
func resolveRef(repo *gogit.Repository, name plumbing.ReferenceName) (plumbing.Hash, error) {
	switch {
	case name.IsBranch():
		ref, err := repo.Reference(plumbing.NewRemoteReferenceName(remoteName, name.Short()), true)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return ref.Hash(), nil
	case name.IsTag():
		ref, err := repo.Reference(name, true)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if tag, tagErr := repo.TagObject(ref.Hash()); tagErr == nil {
			commit, commitErr := tag.Commit()
			if commitErr != nil {
				return plumbing.ZeroHash, commitErr
			}
			return commit.Hash, nil
		}
		return ref.Hash(), nil
	default:
		return plumbing.ZeroHash, fmt.Errorf("%q is not a branch or tag reference", name)
	}
}

// CurrentCommit returns the commit identity of HEAD in the clone.
func (c *Client) CurrentCommit(r *Repository) (string, error) {
	repo, err := c.open(r)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", ClassifyGitError(err, "head", r.URL)
	}
	return head.Hash().String(), nil
}
