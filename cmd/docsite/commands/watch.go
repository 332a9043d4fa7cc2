package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/docsite/internal/config"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Metrics bool `help:"Serve Prometheus metrics even when monitoring.metrics.enabled is false"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Monitoring.Metrics.Enabled || w.Metrics {
		reg := prom.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheusRecorder(reg)
		stop, err := serveMetrics(g, cfg.Monitoring.Metrics, reg)
		if err != nil {
			return err
		}
		defer stop()
	}

	builder, cleanup, err := newBuilder(ctx, g, cfg, recorder)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := builder.Build(ctx)
	printReport(g, report)
	if err != nil && !ferrors.HasCategory(err, ferrors.CategoryRender) {
		return err
	}

	if iv := cfg.Watch.RebuildInterval; iv > 0 {
		sched, err := site.NewScheduler(g.Logger)
		if err != nil {
			return ferrors.RuntimeError("create scheduler").WithCause(err).Build()
		}
		if _, err := sched.ScheduleRebuild(ctx, iv, builder); err != nil {
			return ferrors.RuntimeError("schedule rebuild").WithCause(err).Build()
		}
		sched.Start()
		defer func() { _ = sched.Stop() }()
	}

	watcher, err := site.NewWatcher(builder.SourceDir(), cfg.Watch.Debounce, builder, g.Logger, cfg.Output.Dir)
	if err != nil {
		return ferrors.RuntimeError("create watcher").WithCause(err).Build()
	}
	watcher.OnBuild = func(r *site.Report, _ error) { printReport(g, r) }

	if err := watcher.Run(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "watch source directory").Build()
	}
	g.Logger.Info("Shutdown signal received, stopping")
	return nil
}

func serveMetrics(g *Global, mc config.MonitoringMetrics, reg *prom.Registry) (func(), error) {
	mux := http.NewServeMux()
	mux.Handle(mc.Path, metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: mc.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	// Surface bind errors before the first build starts.
	select {
	case err := <-errCh:
		return nil, ferrors.NetworkError("start metrics server").WithCause(err).
			WithContext("addr", mc.Addr).Build()
	case <-time.After(100 * time.Millisecond):
	}
	g.Logger.Info("Serving metrics", "addr", mc.Addr, "path", mc.Path)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			g.Logger.Warn("Metrics server shutdown failed", logfields.Error(err))
		}
	}, nil
}
