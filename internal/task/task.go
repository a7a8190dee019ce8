// Package task turns the versions of a repository into runnable build tasks.
package task

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docversions/internal/builder"
	"git.home.luguber.info/inful/docversions/internal/buildinfo"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/fsutil"
	"git.home.luguber.info/inful/docversions/internal/git"
	"git.home.luguber.info/inful/docversions/internal/logfields"
	"git.home.luguber.info/inful/docversions/internal/versioning"
)

// ErrBuildFailed matches every expected build failure.
var ErrBuildFailed = stderrors.New("build failed")

// BuildFailedError reports that a version produced no documentation. It is
// an expected outcome: the version is skipped, the run continues.
type BuildFailedError struct {
	Version versioning.Version
	Err     error
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("build of %s failed: %v", e.Version, e.Err)
}

func (e *BuildFailedError) Unwrap() []error { return []error{ErrBuildFailed, e.Err} }

// Task builds one version.
type Task interface {
	Version() versioning.Version
	Run(ctx context.Context) (*buildinfo.Info, error)
}

// Source is the part of the checkout source tasks and generators need.
// *git.Client implements it.
type Source interface {
	ListBranches(r *git.Repository) ([]string, error)
	ListTags(r *git.Repository) ([]string, error)
	Checkout(r *git.Repository, ref string) error
	CurrentCommit(r *git.Repository) (string, error)
}

// Store maps commit identities to existing output. *cache.Cache implements it.
type Store interface {
	Lookup(commit string) (string, bool)
	Claim(commit, path string) (int, error)
}

// Env is what every task of one session shares.
type Env struct {
	Repo       *git.Repository
	Source     Source
	Cache      Store
	Builder    builder.Builder
	OutputRoot string
}

// WorkingtreeTask builds the local working tree. It never consults the cache:
// a working tree has no commit identity.
type WorkingtreeTask struct {
	env     Env
	version versioning.Version
}

// NewWorkingtreeTask creates the working tree task.
func NewWorkingtreeTask(env Env) *WorkingtreeTask {
	return &WorkingtreeTask{env: env, version: versioning.WorkingTree()}
}

func (t *WorkingtreeTask) Version() versioning.Version { return t.version }

func (t *WorkingtreeTask) Run(ctx context.Context) (*buildinfo.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := t.version.OutputPath(t.env.OutputRoot)
	res, err := buildStaged(ctx, t.env.Builder, t.env.Repo.WorkingTreePath, out)
	if err != nil {
		return nil, err
	}
	if res.Failed() {
		return nil, &BuildFailedError{Version: t.version, Err: res.Failure}
	}
	info := buildinfo.New()
	if err := stderrors.Join(
		info.Type.Set(t.version.Type),
		info.Slug.Set(t.version.Slug),
		info.OutputPath.Set(out),
		info.ConfigPath.Set(res.ConfigPath),
		info.SourcePath.Set(res.SourcePath),
		info.Reused.Set(false),
	); err != nil {
		return nil, err
	}
	return info, nil
}

// GitTask builds a branch or tag from the shared clone, reusing cached output
// for commits that were built before.
type GitTask struct {
	env     Env
	version versioning.Version
}

// NewGitTask creates a task for a branch or tag version.
func NewGitTask(env Env, version versioning.Version) *GitTask {
	return &GitTask{env: env, version: version}
}

func (t *GitTask) Version() versioning.Version { return t.version }

func (t *GitTask) Run(ctx context.Context) (*buildinfo.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := t.env.Source.Checkout(t.env.Repo, t.version.Ref); err != nil {
		return nil, err
	}
	commit, err := t.env.Source.CurrentCommit(t.env.Repo)
	if err != nil {
		return nil, err
	}

	out := t.version.OutputPath(t.env.OutputRoot)
	info := buildinfo.New()
	if err := stderrors.Join(
		info.Type.Set(t.version.Type),
		info.Slug.Set(t.version.Slug),
		info.Commit.Set(commit),
		info.OutputPath.Set(out),
	); err != nil {
		return nil, err
	}

	if cached, ok := t.env.Cache.Lookup(commit); ok {
		if filepath.Clean(cached) != filepath.Clean(out) {
			if err := fsutil.ReplaceDir(cached, out); err != nil {
				return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to copy cached output").
					WithContext("from", cached).
					WithContext("to", out).
					Build()
			}
		}
		slog.Info("Reusing cached build",
			logfields.Slug(t.version.Slug),
			logfields.Commit(commit),
			logfields.Path(cached))
		if err := info.Reused.Set(true); err != nil {
			return nil, err
		}
		return info, nil
	}

	res, err := buildStaged(ctx, t.env.Builder, t.env.Repo.ClonePath, out)
	if err != nil {
		return nil, err
	}
	if res.Failed() {
		return nil, &BuildFailedError{Version: t.version, Err: res.Failure}
	}
	if err := stderrors.Join(
		info.ConfigPath.Set(res.ConfigPath),
		info.SourcePath.Set(res.SourcePath),
		info.Reused.Set(false),
	); err != nil {
		return nil, err
	}
	dropped, err := t.env.Cache.Claim(commit, out)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		slog.Debug("Superseded cache entries", logfields.Slug(t.version.Slug), logfields.Count(dropped))
	}
	return info, nil
}

// buildStaged runs the build step into a hidden sibling of out and moves the
// result into place only when the build succeeds. A failed build leaves out,
// and any cache entry recorded for it, untouched.
func buildStaged(ctx context.Context, b builder.Builder, source, out string) (builder.Result, error) {
	staging, err := fsutil.StagingDir(out)
	if err != nil {
		return builder.Result{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to create staging directory").
			WithContext("path", out).
			Build()
	}
	defer func() { _ = os.RemoveAll(staging) }()

	res, err := b.Build(ctx, source, staging)
	if err != nil || res.Failed() {
		return res, err
	}
	if err := fsutil.SwapDir(staging, out); err != nil {
		return builder.Result{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to move build output into place").
			WithContext("from", staging).
			WithContext("to", out).
			Build()
	}
	return res, nil
}
