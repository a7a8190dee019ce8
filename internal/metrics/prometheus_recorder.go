package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docversions"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	taskDuration *prom.HistogramVec
	taskResults  *prom.CounterVec
	runDuration  prom.Histogram
	runOutcome   *prom.CounterVec
	syncDuration *prom.HistogramVec
	cacheEntries *prom.GaugeVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of individual version builds",
			Buckets:   prom.ExponentialBuckets(0.1, 2, 12),
		}, []string{"version_type"}),
		taskResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_results_total",
			Help:      "Version build results by outcome",
		}, []string{"version_type", "result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total duration of a build session",
			Buckets:   prom.ExponentialBuckets(1, 2, 12),
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Build sessions by final status",
		}, []string{"outcome"}),
		syncDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of clone or fetch of the shared clone",
			Buckets:   prom.DefBuckets,
		}, []string{"repository", "result"}),
		cacheEntries: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Commits recorded in the build cache",
		}, []string{"repository"}),
	}
	reg.MustRegister(pr.taskDuration, pr.taskResults, pr.runDuration, pr.runOutcome, pr.syncDuration, pr.cacheEntries)
	return pr
}

func (p *PrometheusRecorder) ObserveTaskDuration(versionType string, d time.Duration) {
	if p == nil {
		return
	}
	p.taskDuration.WithLabelValues(versionType).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskResult(versionType string, result ResultLabel) {
	if p == nil {
		return
	}
	p.taskResults.WithLabelValues(versionType, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcome) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveSyncDuration(repo string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.syncDuration.WithLabelValues(repo, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetCacheEntries(repo string, n int) {
	if p == nil {
		return
	}
	p.cacheEntries.WithLabelValues(repo).Set(float64(n))
}
