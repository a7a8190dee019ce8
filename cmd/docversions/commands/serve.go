package commands

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/docversions/internal/daemon"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/logfields"
	"git.home.luguber.info/inful/docversions/internal/metrics"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Location    string `arg:"" optional:"" default:"." help:"Repository URL or path to a working tree"`
	Interval    string `help:"Time between sessions (overrides serve.interval)"`
	MetricsAddr string `name:"metrics-addr" help:"Expose Prometheus metrics on this address, e.g. :9090"`

	BuildFlags `embed:""`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, &s.BuildFlags)
	if err != nil {
		return err
	}
	interval := cfg.Serve.IntervalDuration()
	if s.Interval != "" {
		d, parseErr := time.ParseDuration(s.Interval)
		if parseErr != nil || d <= 0 {
			return errors.ValidationError("invalid --interval").WithContext("value", s.Interval).Build()
		}
		interval = d
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := g.ctx()
	sched, err := daemon.NewScheduler("docversions-build", interval, func(ctx context.Context) error {
		res, runErr := rt.run(ctx, s.Location, s.Ephemeral)
		if runErr == nil {
			printResult(g.out(), res)
		}
		return runErr
	})
	if err != nil {
		return err
	}

	var srv *http.Server
	if s.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.HTTPHandler(rt.registry))
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok\n"))
		})
		srv = &http.Server{Addr: s.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if serveErr := srv.ListenAndServe(); serveErr != nil && !stderrors.Is(serveErr, http.ErrServerClosed) {
				slog.Error("Metrics server failed", logfields.Error(serveErr))
			}
		}()
		slog.Info("Metrics server listening", slog.String("addr", s.MetricsAddr))
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping scheduler")

	stopErr := sched.Stop()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Metrics server shutdown error", logfields.Error(err))
		}
	}
	return stopErr
}
