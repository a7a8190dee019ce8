package daemon

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

func TestNewSchedulerValidates(t *testing.T) {
	_, err := NewScheduler("build", 0, func(context.Context) error { return nil })
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = NewScheduler("build", time.Second, nil)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestSchedulerRunsImmediatelyAndRepeats(t *testing.T) {
	var calls atomic.Int32
	s, err := NewScheduler("build", 50*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.True(t, s.NextRun().IsZero())

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 5*time.Second, 10*time.Millisecond)
	require.Zero(t, s.Failures())
	require.GreaterOrEqual(t, s.Runs(), int64(3))
}

func TestSchedulerNeverOverlaps(t *testing.T) {
	var inFlight, maxInFlight, calls atomic.Int32
	s, err := NewScheduler("build", 10*time.Millisecond, func(context.Context) error {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(60 * time.Millisecond)
		inFlight.Add(-1)
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
	require.Equal(t, int32(1), maxInFlight.Load())
}

func TestSchedulerCountsFailures(t *testing.T) {
	s, err := NewScheduler("build", 20*time.Millisecond, func(context.Context) error {
		return stderrors.New("clone failed")
	})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	require.Eventually(t, func() bool { return s.Failures() >= 2 }, 5*time.Second, 10*time.Millisecond)
}

func TestSchedulerSkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32
	s, err := NewScheduler("build", 20*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, s.Stop())
	require.Zero(t, calls.Load())
}
