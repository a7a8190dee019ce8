// Package metrics provides observability hooks for build sessions.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed:
//
//	svc := build.NewService(cfg, build.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the given registry. The
// registry can be scraped over HTTP (HTTPHandler, used by `serve`) or written
// as a node_exporter textfile after a one-shot build (WriteTextfile).
package metrics
