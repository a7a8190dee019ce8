package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docversions/internal/eventstore"
	"git.home.luguber.info/inful/docversions/internal/logfields"
	"git.home.luguber.info/inful/docversions/internal/manifest"
	"git.home.luguber.info/inful/docversions/internal/metrics"
	"git.home.luguber.info/inful/docversions/internal/task"
	"git.home.luguber.info/inful/docversions/internal/versioning"
)

// Orchestrator runs tasks sequentially and collects their results into a manifest.
type Orchestrator struct {
	manifest *manifest.Manifest
	recorder metrics.Recorder
	events   EventSink
	failed   []versioning.Version
}

// NewOrchestrator appends results to m. recorder and events may be nil.
func NewOrchestrator(m *manifest.Manifest, recorder metrics.Recorder, events EventSink) *Orchestrator {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if events == nil {
		events = nopSink{}
	}
	return &Orchestrator{manifest: m, recorder: recorder, events: events}
}

// Failed returns the versions dropped after a build failure, in run order.
func (o *Orchestrator) Failed() []versioning.Version { return o.failed }

// Run executes every task. Build failures drop the task; any other error
// stops the run and is returned together with the manifest so far.
func (o *Orchestrator) Run(ctx context.Context, tasks []task.Task) (*manifest.Manifest, error) {
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return o.manifest, err
		}
		v := t.Version()
		attrs := []any{logfields.VersionType(string(v.Type)), logfields.Slug(v.Slug)}
		slog.Debug("Task running", attrs...)

		start := time.Now()
		info, err := t.Run(ctx)
		elapsed := time.Since(start)
		o.recorder.ObserveTaskDuration(string(v.Type), elapsed)

		switch {
		case err == nil:
			if addErr := o.manifest.Add(info); addErr != nil {
				o.recorder.IncTaskResult(string(v.Type), metrics.ResultError)
				return o.manifest, addErr
			}
			reused := info.Reused.GetOr(false)
			result := metrics.ResultBuilt
			if reused {
				result = metrics.ResultReused
			}
			o.recorder.IncTaskResult(string(v.Type), result)
			o.events.Record(ctx, eventstore.TypeVersionBuilt, eventstore.VersionBuilt{
				Slug:       v.Slug,
				Type:       string(v.Type),
				Commit:     info.Commit.GetOr(""),
				Reused:     reused,
				DurationMS: elapsed.Milliseconds(),
			})
			slog.Info("Task completed", append(attrs,
				logfields.OutputPath(info.OutputPath.GetOr("")),
				slog.Bool("reused", reused),
				logfields.DurationMS(float64(elapsed.Milliseconds())))...)

		case stderrors.Is(err, task.ErrBuildFailed):
			o.failed = append(o.failed, v)
			o.recorder.IncTaskResult(string(v.Type), metrics.ResultFailed)
			o.events.Record(ctx, eventstore.TypeVersionFailed, eventstore.VersionFailed{
				Slug:   v.Slug,
				Type:   string(v.Type),
				Reason: err.Error(),
			})
			slog.Warn("Task failed, skipping version", append(attrs, logfields.Error(err))...)

		default:
			o.recorder.IncTaskResult(string(v.Type), metrics.ResultError)
			slog.Error("Task aborted the run", append(attrs, logfields.Error(err))...)
			return o.manifest, err
		}
	}
	return o.manifest, nil
}
