package build

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docversions/internal/buildinfo"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/manifest"
	"git.home.luguber.info/inful/docversions/internal/metrics"
	"git.home.luguber.info/inful/docversions/internal/task"
	"git.home.luguber.info/inful/docversions/internal/versioning"
)

type stubTask struct {
	version versioning.Version
	root    string
	err     error
	reused  bool
	ran     *int
	cancel  context.CancelFunc
}

func (s stubTask) Version() versioning.Version { return s.version }

func (s stubTask) Run(context.Context) (*buildinfo.Info, error) {
	if s.ran != nil {
		*s.ran++
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.err != nil {
		return nil, s.err
	}
	info := buildinfo.New()
	err := stderrors.Join(
		info.Type.Set(s.version.Type),
		info.Slug.Set(s.version.Slug),
		info.OutputPath.Set(s.version.OutputPath(s.root)),
		info.Reused.Set(s.reused),
	)
	return info, err
}

type countingRecorder struct {
	metrics.NoopRecorder
	results map[metrics.ResultLabel]int
}

func (c *countingRecorder) IncTaskResult(_ string, r metrics.ResultLabel) { c.results[r]++ }

type recordingSink struct{ types []string }

func (r *recordingSink) Record(_ context.Context, eventType string, _ any) {
	r.types = append(r.types, eventType)
}

func TestOrchestratorDropsBuildFailures(t *testing.T) {
	root := t.TempDir()
	ran := 0
	failure := &task.BuildFailedError{Version: versioning.Branch("v1"), Err: stderrors.New("no conf.py")}
	tasks := []task.Task{
		stubTask{version: versioning.Branch("main"), root: root, ran: &ran},
		stubTask{version: versioning.Branch("v1"), root: root, err: failure, ran: &ran},
		stubTask{version: versioning.Tag("v1.0"), root: root, reused: true, ran: &ran},
	}
	rec := &countingRecorder{results: map[metrics.ResultLabel]int{}}
	sink := &recordingSink{}

	o := NewOrchestrator(manifest.New("p", "", root, "dev"), rec, sink)
	m, err := o.Run(context.Background(), tasks)
	require.NoError(t, err)
	require.Equal(t, 3, ran)

	require.Len(t, m.Versions, 2)
	require.Equal(t, "main", m.Versions[0].Slug)
	require.Equal(t, "v1.0", m.Versions[1].Slug)
	require.Equal(t, filepath.ToSlash(filepath.Join("tags", "v1.0")), m.Versions[1].Path)
	require.Equal(t, []versioning.Version{versioning.Branch("v1")}, o.Failed())

	require.Equal(t, 1, rec.results[metrics.ResultBuilt])
	require.Equal(t, 1, rec.results[metrics.ResultReused])
	require.Equal(t, 1, rec.results[metrics.ResultFailed])
	require.Equal(t, []string{"VersionBuilt", "VersionFailed", "VersionBuilt"}, sink.types)
}

func TestOrchestratorAbortsOnInfrastructureError(t *testing.T) {
	root := t.TempDir()
	ran := 0
	boom := errors.CacheError("disk gone").Build()
	tasks := []task.Task{
		stubTask{version: versioning.Branch("a"), root: root, ran: &ran},
		stubTask{version: versioning.Branch("b"), root: root, err: boom, ran: &ran},
		stubTask{version: versioning.Branch("c"), root: root, ran: &ran},
	}

	m, err := NewOrchestrator(manifest.New("p", "", root, "dev"), nil, nil).Run(context.Background(), tasks)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, ran, "tasks after the failure must not run")
	require.Len(t, m.Versions, 1, "partial manifest keeps completed tasks")
}

func TestOrchestratorAbortsOnContractViolation(t *testing.T) {
	root := t.TempDir()
	bad := buildinfo.New() // nothing set
	tasks := []task.Task{badInfoTask{info: bad}, stubTask{version: versioning.Branch("b"), root: root}}

	m, err := NewOrchestrator(manifest.New("p", "", root, "dev"), nil, nil).Run(context.Background(), tasks)
	require.ErrorIs(t, err, buildinfo.ErrNotPresent)
	require.True(t, errors.HasCategory(err, errors.CategoryInternal))
	require.Empty(t, m.Versions)
}

type badInfoTask struct{ info *buildinfo.Info }

func (b badInfoTask) Version() versioning.Version                  { return versioning.Branch("bad") }
func (b badInfoTask) Run(context.Context) (*buildinfo.Info, error) { return b.info, nil }

func TestOrchestratorStopsWhenCancelled(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ran := 0
	tasks := []task.Task{
		stubTask{version: versioning.Branch("a"), root: root, ran: &ran, cancel: cancel},
		stubTask{version: versioning.Branch("b"), root: root, ran: &ran},
	}

	m, err := NewOrchestrator(manifest.New("p", "", root, "dev"), nil, nil).Run(ctx, tasks)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, ran)
	require.Len(t, m.Versions, 1)
}

func TestOrchestratorEmpty(t *testing.T) {
	m, err := NewOrchestrator(manifest.New("p", "", t.TempDir(), "dev"), nil, nil).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, m.Versions)
}
