package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docversions/internal/builder"
	"git.home.luguber.info/inful/docversions/internal/cache"
	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/eventstore"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/git"
	"git.home.luguber.info/inful/docversions/internal/logfields"
	"git.home.luguber.info/inful/docversions/internal/manifest"
	"git.home.luguber.info/inful/docversions/internal/metrics"
	"git.home.luguber.info/inful/docversions/internal/notify"
	"git.home.luguber.info/inful/docversions/internal/retry"
	"git.home.luguber.info/inful/docversions/internal/task"
	"git.home.luguber.info/inful/docversions/internal/version"
	"git.home.luguber.info/inful/docversions/internal/workspace"
)

// DefaultService is the standard implementation of Service.
type DefaultService struct {
	// Optional dependencies that can be injected
	workspaceFactory func(req Request) *workspace.Manager
	gitOptions       []git.Option
	runner           builder.Runner
	builderFactory   func(cfg config.BuilderConfig, envRoot string, runner builder.Runner) (builder.Builder, error)
	recorder         metrics.Recorder
	history          eventstore.Store
	publisher        notify.Publisher
}

// NewService creates a DefaultService with default factories.
func NewService() *DefaultService {
	return &DefaultService{
		workspaceFactory: defaultWorkspace,
		runner:           builder.ExecRunner{},
		builderFactory:   builder.New,
		recorder:         metrics.NoopRecorder{},
		publisher:        notify.NopPublisher{},
	}
}

func defaultWorkspace(req Request) *workspace.Manager {
	if req.Ephemeral {
		return workspace.NewManager("")
	}
	return workspace.NewPersistentManager(req.Config.DataDir)
}

// WithWorkspaceFactory allows injecting a custom workspace factory (for testing).
func (s *DefaultService) WithWorkspaceFactory(factory func(req Request) *workspace.Manager) *DefaultService {
	s.workspaceFactory = factory
	return s
}

// WithGitOptions adds options for the git client (name resolver, retry policy).
func (s *DefaultService) WithGitOptions(opts ...git.Option) *DefaultService {
	s.gitOptions = append(s.gitOptions, opts...)
	return s
}

// WithRunner sets the process runner handed to the builder.
func (s *DefaultService) WithRunner(r builder.Runner) *DefaultService {
	s.runner = r
	return s
}

// WithBuilderFactory replaces builder.New (for testing).
func (s *DefaultService) WithBuilderFactory(f func(config.BuilderConfig, string, builder.Runner) (builder.Builder, error)) *DefaultService {
	s.builderFactory = f
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithHistory records session events in store.
func (s *DefaultService) WithHistory(store eventstore.Store) *DefaultService {
	s.history = store
	return s
}

// WithPublisher announces finished sessions through p.
func (s *DefaultService) WithPublisher(p notify.Publisher) *DefaultService {
	if p != nil {
		s.publisher = p
	}
	return s
}

// Run executes one build session.
func (s *DefaultService) Run(ctx context.Context, req Request) (result *Result, err error) {
	result = &Result{StartTime: time.Now()}
	runID := uuid.NewString()
	events := newSink(s.history, runID)

	defer func() {
		s.finish(ctx, req, result, err, events)
	}()

	if req.Config == nil {
		return result, errors.ConfigError("config required").Build()
	}
	if req.Location == "" {
		return result, errors.ValidationError("repository location required").Build()
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	cfg := req.Config

	ws := s.workspaceFactory(req)
	if err := ws.Create(); err != nil {
		return result, err
	}
	defer func() {
		if cleanupErr := ws.Cleanup(); cleanupErr != nil {
			slog.Warn("Failed to cleanup workspace", logfields.Error(cleanupErr))
		}
	}()

	opts := append([]git.Option{
		git.WithAuth(cfg.Git.Auth),
		git.WithRetryPolicy(retry.FromGitConfig(cfg.Git)),
	}, s.gitOptions...)
	client := git.NewClient(ws.ClonesDir(), opts...)

	syncStart := time.Now()
	repo, err := client.Resolve(ctx, req.Location)
	s.recorder.ObserveSyncDuration(uniqueNameOr(repo, req.Location), time.Since(syncStart), err == nil)
	if err != nil {
		return result, err
	}
	result.Repository = repo

	outputRoot := req.OutputDir
	if outputRoot == "" {
		outputRoot = cfg.OutputDir
	}
	if abs, absErr := filepath.Abs(outputRoot); absErr == nil {
		outputRoot = abs
	}

	m := manifest.New(repo.UniqueName, repo.URL, outputRoot, version.Resolved())
	m.RunID = runID
	m.Builder = string(cfg.Builder.Kind)
	result.Manifest = m

	slog.Info("Build session started",
		logfields.RunID(runID),
		logfields.Repository(repo.UniqueName),
		logfields.URL(repo.URL),
		logfields.Strategy(string(cfg.Versioning.Strategy)),
		logfields.Builder(string(cfg.Builder.Kind)),
		logfields.OutputPath(outputRoot))
	events.Record(ctx, eventstore.TypeRunStarted, eventstore.RunStarted{
		Repository: repo.UniqueName,
		URL:        repo.URL,
		Strategy:   string(cfg.Versioning.Strategy),
		Builder:    string(cfg.Builder.Kind),
		OutputRoot: outputRoot,
	})
	events.Record(ctx, eventstore.TypeRepositorySynced, eventstore.RepositorySynced{
		Repository: repo.UniqueName,
		ClonePath:  repo.ClonePath,
		DurationMS: time.Since(syncStart).Milliseconds(),
	})

	c, err := cache.Open(ws.CacheDir(), repo.UniqueName)
	if err != nil {
		return result, err
	}
	defer func() {
		// the table is persisted even when the run aborted
		if closeErr := c.Close(); closeErr != nil {
			err = stderrors.Join(err, closeErr)
		}
		s.recorder.SetCacheEntries(repo.UniqueName, c.Len())
	}()

	b, err := s.builderFactory(cfg.Builder, ws.EnvironmentsDir(), s.runner)
	if err != nil {
		return result, err
	}

	env := task.Env{Repo: repo, Source: client, Cache: c, Builder: b, OutputRoot: outputRoot}
	tasks, err := task.FactoryFor(cfg.Versioning, env).Tasks(ctx)
	if err != nil {
		return result, err
	}
	slog.Info("Versions enumerated", logfields.Repository(repo.UniqueName), logfields.Count(len(tasks)))

	orch := NewOrchestrator(m, s.recorder, events)
	_, err = orch.Run(ctx, tasks)
	result.Failed = orch.Failed()
	m.Finish()
	if err != nil {
		return result, err
	}

	path, err := m.Write()
	if err != nil {
		return result, err
	}
	result.ManifestPath = path
	return result, nil
}

// finish stamps the result and reports the outcome to metrics, history and
// the notification channel.
func (s *DefaultService) finish(ctx context.Context, req Request, result *Result, err error, events EventSink) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	switch {
	case err == nil:
		result.Status = StatusSuccess
		s.recorder.IncRunOutcome(metrics.OutcomeSuccess)
	case stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded):
		result.Status = StatusCancelled
		s.recorder.IncRunOutcome(metrics.OutcomeCanceled)
	default:
		result.Status = StatusFailed
		s.recorder.IncRunOutcome(metrics.OutcomeFailed)
	}
	s.recorder.ObserveRunDuration(result.Duration)

	completion := notify.Completion{
		Status:     notify.StatusSucceeded,
		OutputRoot: req.OutputDir,
		Failed:     len(result.Failed),
		Versions:   []string{},
		FinishedAt: result.EndTime.UTC(),
	}
	if result.Repository != nil {
		completion.Repository = result.Repository.UniqueName
		completion.URL = result.Repository.URL
	}
	if m := result.Manifest; m != nil {
		completion.RunID = m.RunID
		completion.OutputRoot = m.OutputRoot
		for _, v := range m.Versions {
			completion.Versions = append(completion.Versions, string(v.Type)+":"+v.Slug)
		}
	}

	if err == nil {
		var hash string
		var reused int
		if m := result.Manifest; m != nil {
			hash, _ = m.Hash()
			reused = m.Reused()
		}
		events.Record(ctx, eventstore.TypeRunCompleted, eventstore.RunCompleted{
			Versions:     len(completion.Versions),
			Reused:       reused,
			Failed:       len(result.Failed),
			ManifestPath: result.ManifestPath,
			ManifestHash: hash,
			DurationMS:   result.Duration.Milliseconds(),
		})
		completion.ManifestPath = result.ManifestPath
		slog.Info("Build session completed",
			logfields.Repository(completion.Repository),
			logfields.Count(len(completion.Versions)),
			slog.Int("failed", len(result.Failed)),
			logfields.Path(result.ManifestPath),
			logfields.DurationMS(float64(result.Duration.Milliseconds())))
	} else {
		events.Record(ctx, eventstore.TypeRunFailed, eventstore.RunFailed{
			Error:      err.Error(),
			Category:   string(errors.GetCategory(err)),
			DurationMS: result.Duration.Milliseconds(),
		})
		completion.Status = notify.StatusFailed
		completion.Error = err.Error()
	}

	if completion.RunID == "" {
		// resolution failed before the manifest existed; nothing to announce
		return
	}
	if pubErr := s.publisher.Publish(context.WithoutCancel(ctx), completion); pubErr != nil {
		slog.Warn("Failed to publish completion", logfields.RunID(completion.RunID), logfields.Error(pubErr))
	}
}

func uniqueNameOr(repo *git.Repository, location string) string {
	if repo != nil {
		return repo.UniqueName
	}
	return location
}
