package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/docversions/internal/build"
	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/eventstore"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/logfields"
	"git.home.luguber.info/inful/docversions/internal/metrics"
	"git.home.luguber.info/inful/docversions/internal/notify"
)

// runtime wires the build service to the optional history store, metrics
// registry and notification publisher described by the configuration.
type runtime struct {
	cfg       *config.Config
	service   *build.DefaultService
	registry  *prom.Registry
	history   *eventstore.SQLiteStore
	publisher notify.Publisher
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	rt := &runtime{cfg: cfg, registry: prom.NewRegistry(), publisher: notify.NopPublisher{}}
	rt.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rt.service = build.NewService().WithRecorder(metrics.NewPrometheusRecorder(rt.registry))

	if cfg.History.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create history directory").
				WithContext("path", cfg.History.Path).
				Build()
		}
		store, err := eventstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		rt.history = store
		rt.service.WithHistory(store)
	}

	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			// sessions still run without notifications
			slog.Warn("NATS unavailable, notifications disabled", logfields.URL(cfg.Notify.NATSURL), logfields.Error(err))
		} else {
			rt.publisher = pub
			rt.service.WithPublisher(pub)
		}
	}
	return rt, nil
}

// run executes one session and refreshes the metrics textfile.
func (rt *runtime) run(ctx context.Context, location string, ephemeral bool) (*build.Result, error) {
	res, err := rt.service.Run(ctx, build.Request{Config: rt.cfg, Location: location, Ephemeral: ephemeral})
	if path := rt.cfg.Metrics.Textfile; path != "" {
		if mErr := metrics.WriteTextfile(path, rt.registry); mErr != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(mErr))
		}
	}
	return res, err
}

func (rt *runtime) Close() {
	if err := rt.publisher.Close(); err != nil {
		slog.Warn("Failed to close publisher", logfields.Error(err))
	}
	if rt.history != nil {
		if err := rt.history.Close(); err != nil {
			slog.Warn("Failed to close history store", logfields.Error(err))
		}
	}
}

// printResult writes a human readable session summary.
func printResult(w io.Writer, res *build.Result) {
	if res == nil || res.Manifest == nil {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "VERSION\tTYPE\tCOMMIT\tSTATUS\tPATH")
	for _, v := range res.Manifest.Versions {
		status := "built"
		if v.Reused {
			status = "reused"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.DisplayName, v.Type, shortCommit(v.Commit), status, v.Path)
	}
	for _, v := range res.Failed {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t-\tfailed\t-\n", v.Slug, v.Type)
	}
	_ = tw.Flush()
	if res.ManifestPath != "" {
		_, _ = fmt.Fprintf(w, "manifest: %s\n", res.ManifestPath)
	}
}

func shortCommit(c string) string {
	if len(c) > 10 {
		return c[:10]
	}
	if c == "" {
		return "-"
	}
	return c
}
