package metrics

import (
	"sync"
	"time"
)

// testRecorder counts calls; it doubles as a compile-time check that the
// interface stays implementable outside the two shipped recorders.
type testRecorder struct {
	mu       sync.Mutex
	results  map[string]map[ResultLabel]int
	outcomes map[RunOutcome]int
	tasks    int
	runs     int
	syncs    int
	entries  map[string]int
}

var _ Recorder = (*testRecorder)(nil)

func newTestRecorder() *testRecorder {
	return &testRecorder{results: map[string]map[ResultLabel]int{}, outcomes: map[RunOutcome]int{}, entries: map[string]int{}}
}

func (t *testRecorder) ObserveTaskDuration(string, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tasks++
}

func (t *testRecorder) IncTaskResult(versionType string, result ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.results[versionType]
	if !ok {
		m = map[ResultLabel]int{}
		t.results[versionType] = m
	}
	m[result]++
}

func (t *testRecorder) ObserveRunDuration(time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs++
}

func (t *testRecorder) IncRunOutcome(o RunOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes[o]++
}

func (t *testRecorder) ObserveSyncDuration(string, time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.syncs++
}

func (t *testRecorder) SetCacheEntries(repo string, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[repo] = n
}
