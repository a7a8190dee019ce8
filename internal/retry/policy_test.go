package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"git.home.luguber.info/inful/docversions/internal/config"
)

// TestDefaultPolicy verifies the baseline default values.
func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != config.RetryBackoffLinear {
		t.Fatalf("expected linear default mode got %s", p.Mode)
	}
	if p.Initial != time.Second || p.Max != 30*time.Second || p.MaxRetries != 2 {
		t.Fatalf("unexpected defaults %+v", p)
	}
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 5*time.Second, 2*time.Second, 5)
	if p.Initial != 2*time.Second {
		t.Fatalf("expected clamped initial 2s got %v", p.Initial)
	}
	if p.Mode != config.RetryBackoffFixed {
		t.Fatalf("expected fixed mode got %s", p.Mode)
	}
	if p.MaxRetries != 5 {
		t.Fatalf("expected maxRetries 5 got %d", p.MaxRetries)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestFromGitConfig(t *testing.T) {
	p := FromGitConfig(config.GitConfig{MaxRetries: 4, RetryBackoff: config.RetryBackoffExponential, RetryInitialDelay: "10ms", RetryMaxDelay: "1s"})
	if p.Mode != config.RetryBackoffExponential || p.Initial != 10*time.Millisecond || p.Max != time.Second || p.MaxRetries != 4 {
		t.Fatalf("unexpected policy %+v", p)
	}
}

// TestDelayModes ensures fixed, linear, exponential behave and respect cap.
func TestDelayModes(t *testing.T) {
	fixed := NewPolicy(config.RetryBackoffFixed, 100*time.Millisecond, 500*time.Millisecond, 3)
	for i := 1; i <= 3; i++ {
		if d := fixed.Delay(i); d != 100*time.Millisecond {
			t.Fatalf("fixed attempt %d expected 100ms got %v", i, d)
		}
	}

	linear := NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5)
	cases := []struct {
		attempt int
		want    time.Duration
	}{{1, 100 * time.Millisecond}, {2, 200 * time.Millisecond}, {3, 250 * time.Millisecond}, {4, 250 * time.Millisecond}}
	for _, c := range cases {
		if got := linear.Delay(c.attempt); got != c.want {
			t.Fatalf("linear attempt %d expected %v got %v", c.attempt, c.want, got)
		}
	}

	exp := NewPolicy(config.RetryBackoffExponential, 50*time.Millisecond, 160*time.Millisecond, 5)
	expCases := []struct {
		attempt int
		want    time.Duration
	}{{1, 50 * time.Millisecond}, {2, 100 * time.Millisecond}, {3, 160 * time.Millisecond}, {4, 160 * time.Millisecond}}
	for _, c := range expCases {
		if got := exp.Delay(c.attempt); got != c.want {
			t.Fatalf("exp attempt %d expected %v got %v", c.attempt, c.want, got)
		}
	}
	if exp.Delay(0) != 0 {
		t.Fatalf("attempt 0 should not delay")
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, 5*time.Millisecond, 3)
	attempts := 0
	var retried []int
	err := Do(context.Background(), p, Hooks{OnRetry: func(n int, _ error) { retried = append(retried, n) }}, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary network failure")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success: %v", err)
	}
	if attempts != 3 || len(retried) != 2 {
		t.Fatalf("expected 3 attempts and 2 retries, got %d/%v", attempts, retried)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, 5*time.Millisecond, 3)
	permanent := errors.New("authentication failed")
	attempts := 0
	err := Do(context.Background(), p, Hooks{Permanent: func(err error) bool { return errors.Is(err, permanent) }}, func() error {
		attempts++
		return permanent
	})
	if !errors.Is(err, permanent) || attempts != 1 {
		t.Fatalf("expected single attempt with permanent error, got %d: %v", attempts, err)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
	boom := errors.New("boom")
	attempts := 0
	err := Do(context.Background(), p, Hooks{}, func() error { attempts++; return boom })
	if !errors.Is(err, boom) || attempts != 3 {
		t.Fatalf("expected 3 attempts wrapping boom, got %d: %v", attempts, err)
	}
}

func TestDoHonoursContext(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Hour, time.Hour, 2)
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Do(ctx, p, Hooks{OnRetry: func(int, error) { cancel() }}, func() error {
		attempts++
		return errors.New("flaky")
	})
	if !errors.Is(err, context.Canceled) || attempts != 1 {
		t.Fatalf("expected cancellation after first attempt, got %d: %v", attempts, err)
	}
}
