package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/logfields"
)

// RunFunc executes one build session.
type RunFunc func(ctx context.Context) error

// Scheduler wraps a gocron scheduler running one periodic build job.
type Scheduler struct {
	scheduler gocron.Scheduler
	name      string
	interval  time.Duration
	run       RunFunc
	job       gocron.Job
	runs      atomic.Int64
	failures  atomic.Int64
}

// NewScheduler creates a scheduler that calls run every interval.
func NewScheduler(name string, interval time.Duration, run RunFunc) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.ValidationError("schedule interval must be > 0").
			WithContext("interval", interval.String()).
			Build()
	}
	if run == nil {
		return nil, errors.ValidationError("run function is required").Build()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, name: name, interval: interval, run: run}, nil
}

// Start schedules the job and starts the scheduler. The first session runs
// immediately; a session still running when the next one is due delays it
// instead of overlapping.
func (s *Scheduler) Start(ctx context.Context) error {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.execute(ctx) }),
		gocron.WithName(s.name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create periodic build job: %w", err)
	}
	s.job = job
	slog.Info("Starting scheduler", logfields.ScheduleName(s.name), slog.Duration("interval", s.interval))
	s.scheduler.Start()
	return nil
}

// Stop waits for a running session and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler", logfields.ScheduleName(s.name))
	return s.scheduler.Shutdown()
}

// NextRun returns when the job runs next. It is zero before Start.
func (s *Scheduler) NextRun() time.Time {
	if s.job == nil {
		return time.Time{}
	}
	next, err := s.job.NextRun()
	if err != nil {
		return time.Time{}
	}
	return next
}

// Runs returns the number of sessions started so far.
func (s *Scheduler) Runs() int64 { return s.runs.Load() }

// Failures returns the number of sessions that returned an error.
func (s *Scheduler) Failures() int64 { return s.failures.Load() }

func (s *Scheduler) execute(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n := s.runs.Add(1)
	start := time.Now()
	slog.Info("Executing scheduled build", logfields.ScheduleName(s.name), logfields.Attempt(int(n)))
	if err := s.run(ctx); err != nil {
		s.failures.Add(1)
		slog.Error("Scheduled build failed",
			logfields.ScheduleName(s.name),
			logfields.Error(err),
			logfields.DurationMS(float64(time.Since(start).Milliseconds())))
		return
	}
	slog.Info("Scheduled build finished",
		logfields.ScheduleName(s.name),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}
