package metrics

import "time"

// ResultLabel enumerates per-task outcomes.
type ResultLabel string

const (
	ResultBuilt  ResultLabel = "built"  // builder ran and produced output
	ResultReused ResultLabel = "reused" // output came from the cache
	ResultFailed ResultLabel = "failed" // expected build failure, version skipped
	ResultError  ResultLabel = "error"  // infrastructure failure, run aborted
)

// RunOutcome enumerates session outcomes.
type RunOutcome string

const (
	OutcomeSuccess  RunOutcome = "success"
	OutcomeFailed   RunOutcome = "failed"
	OutcomeCanceled RunOutcome = "canceled"
)

// Recorder defines observability hooks for build sessions.
type Recorder interface {
	ObserveTaskDuration(versionType string, d time.Duration)
	IncTaskResult(versionType string, result ResultLabel)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcome)
	ObserveSyncDuration(repo string, d time.Duration, success bool)
	SetCacheEntries(repo string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTaskDuration(string, time.Duration)       {}
func (NoopRecorder) IncTaskResult(string, ResultLabel)               {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                {}
func (NoopRecorder) IncRunOutcome(RunOutcome)                        {}
func (NoopRecorder) ObserveSyncDuration(string, time.Duration, bool) {}
func (NoopRecorder) SetCacheEntries(string, int)                     {}
