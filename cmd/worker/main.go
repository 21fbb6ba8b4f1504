package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/bookinghub/internal/config"
	"github.com/geocoder89/bookinghub/internal/db"
	"github.com/geocoder89/bookinghub/internal/notifications"
	"github.com/geocoder89/bookinghub/internal/observability"
	"github.com/geocoder89/bookinghub/internal/queue/worker"
	"github.com/geocoder89/bookinghub/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env).With("component", "worker")
	slog.SetDefault(log)

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerOptions{
		ServiceName: "bookinghub-worker",
		Endpoint:    cfg.OTLPEndpoint,
		Environment: cfg.Env,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	pool, err := db.NewPool(ctx, cfg.DBURL())
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// SMTP is not wired; the log notifier stands in behind the breaker
	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{Timeout: cfg.Worker.NotifierTimeout},
	)

	w := worker.New(worker.Config{
		Concurrency:  cfg.Worker.Concurrency,
		PollInterval: cfg.Worker.PollInterval,
	}, postgres.NewJobsRepo(pool, prom), notifier, log, prom)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", w.HealthHandler(pool))

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Worker.HealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health server failed", "err", err)
		}
	}()

	log.Info("worker started", "concurrency", cfg.Worker.Concurrency, "health_port", cfg.Worker.HealthPort)

	runErr := w.Run(ctx)

	sctx, cancel := config.WithTimeout(context.Background(), cfg.Worker.ShutdownGrace)
	defer cancel()
	if err := healthSrv.Shutdown(sctx); err != nil {
		log.Error("health server shutdown", "err", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("worker stopped: %w", runErr)
	}

	log.Info("worker shutdown complete")
	return nil
}
