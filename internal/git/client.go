package git

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"

	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/logfields"
	"git.home.luguber.info/inful/docversions/internal/retry"
)

const remoteName = "origin"

// Client materializes and manipulates project clones.
type Client struct {
	cloneRoot string
	auth      *config.AuthConfig
	policy    retry.Policy
	names     *NameResolver
}

// Option configures a Client.
type Option func(*Client)

// WithAuth sets the credentials used for clone and fetch.
func WithAuth(auth *config.AuthConfig) Option { return func(c *Client) { c.auth = auth } }

// WithRetryPolicy sets the clone/fetch retry policy.
func WithRetryPolicy(p retry.Policy) Option { return func(c *Client) { c.policy = p } }

// WithNameResolver overrides the clone directory naming.
func WithNameResolver(r *NameResolver) Option { return func(c *Client) { c.names = r } }

// NewClient creates a client keeping clones under cloneRoot.
func NewClient(cloneRoot string, opts ...Option) *Client {
	c := &Client{
		cloneRoot: cloneRoot,
		policy:    retry.NewPolicy(config.RetryBackoffFixed, 0, 0, 0),
		names:     NewNameResolver(nil),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Resolve turns a location (working tree path or remote URL) into a Repository
// whose clone is present and up to date with the remote.
func (c *Client) Resolve(ctx context.Context, location string) (*Repository, error) {
	r, err := c.Identify(location)
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(filepath.Join(r.ClonePath, ".git")); statErr == nil {
		if err := c.Fetch(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	}
	if err := c.Clone(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Identify names the repository behind location without touching the
// network or the clone directory.
func (c *Client) Identify(location string) (*Repository, error) {
	url, workTree, err := c.locate(location)
	if err != nil {
		return nil, err
	}
	canonical := CanonicalURL(url)
	r := &Repository{
		UniqueName:      c.names.UniqueName(canonical),
		URL:             canonical,
		WorkingTreePath: workTree,
	}
	r.ClonePath = filepath.Join(c.cloneRoot, r.UniqueName)
	return r, nil
}

// locate returns the remote URL for location and the working tree root when
// location is a non-bare local checkout.
func (c *Client) locate(location string) (url, workTree string, err error) {
	location = strings.TrimSpace(location)
	if strings.Contains(location, "://") {
		return location, "", nil
	}
	info, statErr := os.Stat(location)
	if statErr != nil || !info.IsDir() {
		return location, "", nil
	}
	repo, err := gogit.PlainOpenWithOptions(location, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", errors.WrapError(err, errors.CategoryGit, "location is a directory but not a git repository").
			WithContext("path", location).
			Build()
	}
	wt, err := repo.Worktree()
	if stderrors.Is(err, gogit.ErrIsBareRepository) {
		// a bare repository on disk is a clone source, not a working tree
		return location, "", nil
	}
	if err != nil {
		return "", "", ClassifyGitError(err, "open", location)
	}
	url, err = c.RemoteURL(repo)
	if err != nil {
		return "", "", err
	}
	root, absErr := filepath.Abs(wt.Filesystem.Root())
	if absErr != nil {
		root = wt.Filesystem.Root()
	}
	return url, root, nil
}

// RemoteURL returns the first URL of the origin remote.
func (c *Client) RemoteURL(repo *gogit.Repository) (string, error) {
	remote, err := repo.Remote(remoteName)
	if err != nil || len(remote.Config().URLs) == 0 {
		return "", errors.GitError("working tree has no origin remote").
			WithRetry(errors.RetryUserAction).
			WithCause(err).
			Build()
	}
	return remote.Config().URLs[0], nil
}

// Clone clones r.URL into r.ClonePath with all branches and tags.
func (c *Client) Clone(ctx context.Context, r *Repository) error {
	auth, err := authMethod(c.auth)
	if err != nil {
		return err
	}
	start := time.Now()
	err = c.withRetry(ctx, "clone", r, func() error {
		if rmErr := os.RemoveAll(r.ClonePath); rmErr != nil {
			return rmErr
		}
		repo, cloneErr := gogit.PlainCloneContext(ctx, r.ClonePath, false, &gogit.CloneOptions{
			URL:        r.URL,
			Auth:       auth,
			RemoteName: remoteName,
			Tags:       gogit.AllTags,
		})
		if cloneErr != nil {
			return typeRemoteError("clone", r.URL, cloneErr)
		}
		r.repo = repo
		return nil
	})
	if err != nil {
		return ClassifyGitError(err, "clone", r.URL)
	}
	slog.Info("Repository cloned",
		logfields.Repository(r.UniqueName),
		logfields.URL(r.URL),
		logfields.Path(r.ClonePath),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return nil
}

// Fetch updates remote-tracking branches and tags of an existing clone.
func (c *Client) Fetch(ctx context.Context, r *Repository) error {
	repo, err := c.open(r)
	if err != nil {
		return err
	}
	auth, err := authMethod(c.auth)
	if err != nil {
		return err
	}
	err = c.withRetry(ctx, "fetch", r, func() error {
		fetchErr := repo.FetchContext(ctx, &gogit.FetchOptions{
			RemoteName: remoteName,
			RefSpecs:   []ggitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
			Tags:       gogit.AllTags,
			Auth:       auth,
			Force:      true,
			Prune:      true,
		})
		if fetchErr != nil && !stderrors.Is(fetchErr, gogit.NoErrAlreadyUpToDate) {
			return typeRemoteError("fetch", r.URL, fetchErr)
		}
		return nil
	})
	if err != nil {
		return ClassifyGitError(err, "fetch", r.URL)
	}
	slog.Info("Repository fetched", logfields.Repository(r.UniqueName), logfields.Path(r.ClonePath))
	return nil
}

func (c *Client) open(r *Repository) (*gogit.Repository, error) {
	if r.repo != nil {
		return r.repo, nil
	}
	repo, err := gogit.PlainOpen(r.ClonePath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "open clone").
			WithContext("path", r.ClonePath).
			Build()
	}
	r.repo = repo
	return repo, nil
}

func (c *Client) withRetry(ctx context.Context, op string, r *Repository, fn func() error) error {
	return retry.Do(ctx, c.policy, retry.Hooks{
		Permanent: isPermanentGitError,
		Scale: func(err error, d time.Duration) time.Duration {
			if stderrors.As(err, new(*RateLimitError)) {
				return 3 * d
			}
			return d
		},
		OnRetry: func(attempt int, err error) {
			slog.Warn("retrying git operation",
				logfields.Stage(op),
				logfields.Repository(r.UniqueName),
				logfields.Attempt(attempt),
				logfields.Error(err))
		},
	}, fn)
}
