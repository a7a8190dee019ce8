// Package testutils provides git fixtures and filesystem assertions for tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var signature = object.Signature{Name: "tester", Email: "tester@example.com"}

// FixtureRepo is a throwaway upstream repository with a worktree.
type FixtureRepo struct {
	t        testing.TB
	Path     string
	Repo     *git.Repository
	Worktree *git.Worktree
}

// NewFixtureRepo initializes an empty repository whose default branch is main.
func NewFixtureRepo(t testing.TB) *FixtureRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	if err != nil {
		t.Fatalf("init fixture repo: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("fixture worktree: %v", err)
	}
	return &FixtureRepo{t: t, Path: dir, Repo: repo, Worktree: wt}
}

// WriteFile writes content to rel (creating parent directories).
func (f *FixtureRepo) WriteFile(rel, content string) *FixtureRepo {
	f.t.Helper()
	full := filepath.Join(f.Path, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		f.t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		f.t.Fatalf("write %s: %v", rel, err)
	}
	return f
}

// Remove deletes rel from the worktree.
func (f *FixtureRepo) Remove(rel string) *FixtureRepo {
	f.t.Helper()
	if err := os.RemoveAll(filepath.Join(f.Path, filepath.FromSlash(rel))); err != nil {
		f.t.Fatalf("remove %s: %v", rel, err)
	}
	return f
}

// Commit stages every change (including deletions) and commits, returning the hash.
func (f *FixtureRepo) Commit(msg string) string {
	f.t.Helper()
	if err := f.Worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		f.t.Fatalf("add: %v", err)
	}
	sig := signature
	sig.When = time.Now()
	hash, err := f.Worktree.Commit(msg, &git.CommitOptions{Author: &sig, AllowEmptyCommits: true})
	if err != nil {
		f.t.Fatalf("commit: %v", err)
	}
	return hash.String()
}

// Branch creates name at HEAD and checks it out.
func (f *FixtureRepo) Branch(name string) *FixtureRepo {
	f.t.Helper()
	if err := f.Worktree.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name), Create: true}); err != nil {
		f.t.Fatalf("create branch %s: %v", name, err)
	}
	return f
}

// Checkout switches to an existing branch.
func (f *FixtureRepo) Checkout(name string) *FixtureRepo {
	f.t.Helper()
	if err := f.Worktree.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name), Force: true}); err != nil {
		f.t.Fatalf("checkout %s: %v", name, err)
	}
	return f
}

// DeleteBranch removes a local branch ref.
func (f *FixtureRepo) DeleteBranch(name string) *FixtureRepo {
	f.t.Helper()
	if err := f.Repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(name)); err != nil {
		f.t.Fatalf("delete branch %s: %v", name, err)
	}
	return f
}

// Tag creates a lightweight tag at HEAD.
func (f *FixtureRepo) Tag(name string) *FixtureRepo {
	f.t.Helper()
	if _, err := f.Repo.CreateTag(name, f.head(), nil); err != nil {
		f.t.Fatalf("tag %s: %v", name, err)
	}
	return f
}

// AnnotatedTag creates an annotated tag at HEAD.
func (f *FixtureRepo) AnnotatedTag(name, msg string) *FixtureRepo {
	f.t.Helper()
	sig := signature
	sig.When = time.Now()
	if _, err := f.Repo.CreateTag(name, f.head(), &git.CreateTagOptions{Tagger: &sig, Message: msg}); err != nil {
		f.t.Fatalf("annotated tag %s: %v", name, err)
	}
	return f
}

// URL returns a file:// URL for the fixture, so it is treated as a remote
// rather than as a local working tree.
func (f *FixtureRepo) URL() string {
	return "file://" + filepath.ToSlash(f.Path)
}

// Head returns the HEAD commit hash.
func (f *FixtureRepo) Head() string {
	f.t.Helper()
	return f.head().String()
}

func (f *FixtureRepo) head() plumbing.Hash {
	ref, err := f.Repo.Head()
	if err != nil {
		f.t.Fatalf("head: %v", err)
	}
	return ref.Hash()
}

// CloneWorkingTree clones url into a fresh directory and returns its path; the
// result is a working tree whose origin is url.
func CloneWorkingTree(t testing.TB, url string) string {
	t.Helper()
	dir := t.TempDir()
	if _, err := git.PlainClone(dir, false, &git.CloneOptions{URL: url}); err != nil {
		t.Fatalf("clone working tree: %v", err)
	}
	return dir
}
