package build

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docversions/internal/builder"
	"git.home.luguber.info/inful/docversions/internal/cache"
	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/eventstore"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/manifest"
	"git.home.luguber.info/inful/docversions/internal/notify"
	"git.home.luguber.info/inful/docversions/internal/testutil/testutils"
	"git.home.luguber.info/inful/docversions/internal/versioning"
	"git.home.luguber.info/inful/docversions/internal/workspace"
)

// confBuilder "builds" by copying conf.py into index.html. Build number
// brokenAt fails with an infrastructure error.
type confBuilder struct {
	mu       sync.Mutex
	builds   int
	brokenAt int
}

func (b *confBuilder) Name() string { return "conf" }

func (b *confBuilder) Build(_ context.Context, source, output string) (builder.Result, error) {
	b.mu.Lock()
	b.builds++
	broken := b.builds == b.brokenAt
	b.mu.Unlock()
	if broken {
		return builder.Result{}, errors.FileSystemError("disk full").WithContext("path", output).Build()
	}

	dir, ok, err := builder.FindConfig(source, "conf.py")
	if err != nil {
		return builder.Result{}, err
	}
	if !ok {
		return builder.Result{Failure: builder.ErrNoDocumentation}, nil
	}
	data, err := os.ReadFile(filepath.Join(dir, "conf.py"))
	if err != nil {
		return builder.Result{}, err
	}
	if err := os.MkdirAll(output, 0o750); err != nil {
		return builder.Result{}, err
	}
	if err := os.WriteFile(filepath.Join(output, "index.html"), data, 0o600); err != nil {
		return builder.Result{}, err
	}
	return builder.Result{ConfigPath: filepath.Join(dir, "conf.py"), SourcePath: dir}, nil
}

func (b *confBuilder) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builds
}

type capturePublisher struct{ sent []notify.Completion }

func (p *capturePublisher) Publish(_ context.Context, c notify.Completion) error {
	p.sent = append(p.sent, c)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

// upstream: main has docs (tag v1.0, then annotated v2.0 on a later commit);
// branch v1 removed the docs.
func newUpstream(t *testing.T) (*testutils.FixtureRepo, string, string) {
	t.Helper()
	up := testutils.NewFixtureRepo(t)
	up.WriteFile("docs/conf.py", "project = 'demo'\n")
	first := up.Commit("add docs")
	up.Tag("v1.0")

	up.Branch("v1")
	up.Remove("docs")
	up.WriteFile("README", "no docs here\n")
	up.Commit("drop docs")

	up.Checkout("main")
	up.WriteFile("docs/conf.py", "project = 'demo'\nrelease = '2'\n")
	second := up.Commit("release 2")
	up.AnnotatedTag("v2.0", "release 2")
	return up, first, second
}

type harness struct {
	svc       *DefaultService
	cfg       *config.Config
	builder   *confBuilder
	publisher *capturePublisher
	history   *eventstore.SQLiteStore
	ws        *workspace.Manager
	output    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Versioning.Strategy = config.StrategyBranchesAndTags

	store, err := eventstore.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		cfg:       cfg,
		builder:   &confBuilder{},
		publisher: &capturePublisher{},
		history:   store,
		ws:        workspace.NewPersistentManager(cfg.DataDir),
		output:    t.TempDir(),
	}
	h.svc = NewService().
		WithWorkspaceFactory(func(Request) *workspace.Manager { return h.ws }).
		WithBuilderFactory(func(config.BuilderConfig, string, builder.Runner) (builder.Builder, error) {
			return h.builder, nil
		}).
		WithHistory(store).
		WithPublisher(h.publisher)
	return h
}

func (h *harness) run(t *testing.T, location string) *Result {
	t.Helper()
	res, err := h.svc.Run(context.Background(), Request{Config: h.cfg, Location: location, OutputDir: h.output})
	require.NoError(t, err)
	return res
}

func TestServiceBuildsEveryVersionOnce(t *testing.T) {
	up, first, second := newUpstream(t)
	h := newHarness(t)

	res := h.run(t, up.URL())
	require.Equal(t, StatusSuccess, res.Status)
	require.True(t, res.Status.IsSuccess())
	require.Equal(t, 3, h.builder.count(), "main, v1 and v1.0 are generated; v2.0 shares main's commit")
	require.Equal(t, []versioning.Version{versioning.Branch("v1")}, res.Failed)

	m := res.Manifest
	require.Len(t, m.Versions, 3)
	got := []string{}
	for _, v := range m.Versions {
		got = append(got, v.Path)
	}
	require.Equal(t, []string{"branches/main", "tags/v1.0", "tags/v2.0"}, got)
	require.Equal(t, second, m.Versions[0].Commit)
	require.Equal(t, first, m.Versions[1].Commit)
	require.Equal(t, second, m.Versions[2].Commit)
	require.False(t, m.Versions[0].Reused)
	require.True(t, m.Versions[2].Reused)

	// v2.0 received a copy of main's output
	testutils.NewFileAssertions(t, h.output).
		AssertFileContains("tags/v2.0/index.html", "release = '2'").
		AssertFileContains("tags/v1.0/index.html", "project = 'demo'")
	require.NoDirExists(t, filepath.Join(h.output, "branches", "v1"))

	// manifest on disk matches the returned one
	require.Equal(t, filepath.Join(h.output, manifest.FileName), res.ManifestPath)
	onDisk, err := manifest.Read(res.ManifestPath)
	require.NoError(t, err)
	require.Equal(t, m.RunID, onDisk.RunID)
	require.Len(t, onDisk.Versions, 3)

	// exactly one cache entry per distinct commit
	c, err := cache.Open(h.ws.CacheDir(), res.Repository.UniqueName)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	path, ok := c.Lookup(second)
	require.True(t, ok)
	require.Equal(t, filepath.Join(h.output, "branches", "main"), path)

	require.Len(t, h.publisher.sent, 1)
	sent := h.publisher.sent[0]
	require.Equal(t, notify.StatusSucceeded, sent.Status)
	require.Equal(t, m.RunID, sent.RunID)
	require.Equal(t, 1, sent.Failed)
	require.Equal(t, []string{"branch:main", "tag:v1.0", "tag:v2.0"}, sent.Versions)
}

func TestServiceRerunReusesCache(t *testing.T) {
	up, _, _ := newUpstream(t)
	h := newHarness(t)

	h.run(t, up.URL())
	require.Equal(t, 3, h.builder.count())

	res := h.run(t, up.URL())
	require.Equal(t, 4, h.builder.count(), "only the branch without docs is attempted again")
	require.Equal(t, 3, res.Manifest.Reused())

	// a new commit on main overwrites branches/main, so v2.0 can no longer
	// be copied from there and is generated into its own directory
	up.WriteFile("docs/conf.py", "project = 'demo'\nrelease = '3'\n")
	up.Commit("release 3")
	res = h.run(t, up.URL())
	require.Equal(t, 7, h.builder.count())
	require.Equal(t, 1, res.Manifest.Reused())
	testutils.NewFileAssertions(t, h.output).
		AssertFileContains("branches/main/index.html", "release = '3'").
		AssertFileContains("tags/v2.0/index.html", "release = '2'")
}

func TestServiceRecordsHistory(t *testing.T) {
	up, _, _ := newUpstream(t)
	h := newHarness(t)

	res := h.run(t, up.URL())

	summaries, err := eventstore.Summaries(context.Background(), h.history, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	s := summaries[0]
	require.Equal(t, res.Manifest.RunID, s.RunID)
	require.Equal(t, res.Repository.UniqueName, s.Repository)
	require.Equal(t, "completed", s.Status)
	require.Equal(t, []string{"branch:main", "tag:v1.0", "tag:v2.0"}, s.Built)
	require.Equal(t, 1, s.Reused)
	require.Equal(t, []string{"branch:v1"}, s.Failed)
	require.Equal(t, res.ManifestPath, s.Manifest)
}

func TestServiceWorkingTree(t *testing.T) {
	up, _, _ := newUpstream(t)
	local := testutils.CloneWorkingTree(t, up.URL())
	// uncommitted edits are part of the working tree build
	require.NoError(t, os.WriteFile(filepath.Join(local, "docs", "conf.py"), []byte("draft = True\n"), 0o600))

	h := newHarness(t)
	h.cfg.Versioning.Strategy = config.StrategyAll
	h.cfg.Versioning.BranchPatterns = []string{"main"}
	h.cfg.Versioning.TagPatterns = []string{"none-*"}

	res := h.run(t, local)
	require.Len(t, res.Manifest.Versions, 2)
	require.Equal(t, versioning.TypeWorkingTree, res.Manifest.Versions[0].Type)
	require.Empty(t, res.Manifest.Versions[0].Commit)
	testutils.NewFileAssertions(t, h.output).
		AssertFileContains("workingtree/index.html", "draft = True").
		AssertFileContains("branches/main/index.html", "release = '2'")
}

func TestServiceRejectsInvalidRequests(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Run(context.Background(), Request{Location: "x"})
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.Equal(t, StatusFailed, res.Status)

	res, err = h.svc.Run(context.Background(), Request{Config: h.cfg})
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	require.Equal(t, StatusFailed, res.Status)
	require.Empty(t, h.publisher.sent)
}

func TestServiceUnreachableRepository(t *testing.T) {
	h := newHarness(t)
	h.cfg.Git.MaxRetries = 0

	res, err := h.svc.Run(context.Background(), Request{
		Config:    h.cfg,
		Location:  "file://" + filepath.ToSlash(filepath.Join(t.TempDir(), "missing")),
		OutputDir: h.output,
	})
	require.Error(t, err)
	require.Equal(t, StatusFailed, res.Status)
	require.Nil(t, res.Manifest)
	require.Empty(t, h.publisher.sent)

	summaries, sErr := eventstore.Summaries(context.Background(), h.history, 10)
	require.NoError(t, sErr)
	require.Len(t, summaries, 1)
	require.Equal(t, "failed", summaries[0].Status)
	require.NotEmpty(t, summaries[0].Error)
}

func TestServiceAbortFlushesCache(t *testing.T) {
	up, _, second := newUpstream(t)
	h := newHarness(t)
	h.builder.brokenAt = 2 // main builds, v1 hits the broken disk

	res, err := h.svc.Run(context.Background(), Request{Config: h.cfg, Location: up.URL(), OutputDir: h.output})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
	require.Equal(t, StatusFailed, res.Status)
	require.Empty(t, res.ManifestPath)
	require.NoFileExists(t, filepath.Join(h.output, manifest.FileName))
	require.Equal(t, 2, h.builder.count())

	c, err := cache.Open(h.ws.CacheDir(), res.Repository.UniqueName)
	require.NoError(t, err)
	path, ok := c.Lookup(second)
	require.True(t, ok, "the commit built before the abort is persisted")
	require.Equal(t, filepath.Join(h.output, "branches", "main"), path)
	require.Equal(t, 1, c.Len())

	summaries, err := eventstore.Summaries(context.Background(), h.history, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "failed", summaries[0].Status)
	require.Equal(t, []string{"branch:main"}, summaries[0].Built)
	require.Contains(t, summaries[0].Error, "disk full")

	require.Len(t, h.publisher.sent, 1)
	require.Equal(t, notify.StatusFailed, h.publisher.sent[0].Status)
}

func TestServiceCancelled(t *testing.T) {
	up, _, _ := newUpstream(t)
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := h.svc.Run(ctx, Request{Config: h.cfg, Location: up.URL(), OutputDir: h.output})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StatusCancelled, res.Status)
	require.Zero(t, h.builder.count())
}
