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

	"github.com/geocoder89/bookinghub/internal/auth"
	"github.com/geocoder89/bookinghub/internal/config"
	"github.com/geocoder89/bookinghub/internal/db"
	httpx "github.com/geocoder89/bookinghub/internal/http"
	"github.com/geocoder89/bookinghub/internal/http/middlewares"
	"github.com/geocoder89/bookinghub/internal/observability"
	"github.com/geocoder89/bookinghub/internal/payments"
	"github.com/geocoder89/bookinghub/internal/queue/redisclient"
	"github.com/geocoder89/bookinghub/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// a missing JWT_SECRET stops us here, before anything listens
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerOptions{
		ServiceName: "bookinghub-api",
		Endpoint:    cfg.OTLPEndpoint,
		Environment: cfg.Env,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := config.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn.Duration())
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, cfg.DBURL())
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	users := postgres.NewUsersRepo(pool, prom)

	created, err := db.EnsureAdminUser(ctx, users, cfg)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		log.Info("admin user created", "email", cfg.AdminEmail)
	}

	deps := httpx.Deps{
		Users:    users,
		Types:    postgres.NewAppointmentTypesRepo(pool, prom),
		Bookings: postgres.NewBookingsRepo(pool, prom),
		Jobs:     postgres.NewJobsRepo(pool, prom),
		Tokens:   tokens,
		Payments: payments.NewMockGateway(),
		Prom:     prom,
		Gatherer: reg,
		DB:       pool,
	}

	if cfg.Redis.Addr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rc.Close()

		deps.Redis = rc
		deps.Limiter = middlewares.NewRedisRateLimiter(rc.Raw(), cfg.LoginRateLimit, cfg.LoginRateWindow)
	} else {
		log.Warn("REDIS_ADDR not set; rate limits are per process")
	}

	router := httpx.NewRouter(log, deps, cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
