package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/geocoder89/bookinghub/internal/domain/job"
	"github.com/geocoder89/bookinghub/internal/notifications"
	"github.com/geocoder89/bookinghub/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

type Config struct {
	WorkerID     string
	Concurrency  int
	PollInterval time.Duration
	JobTimeout   time.Duration
	StaleLockTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.WorkerID == "" {
		host, _ := os.Hostname()
		c.WorkerID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 30 * time.Second
	}
	if c.StaleLockTTL <= 0 {
		c.StaleLockTTL = 2 * time.Minute
	}
	return c
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom
	metrics  *observability.JobMetrics

	ready atomic.Bool
	now   func() time.Time
}

func New(cfg Config, repo JobsRepository, notifier notifications.Notifier, log *slog.Logger, prom *observability.Prom) *Worker {
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:      cfg.withDefaults(),
		repo:     repo,
		notifier: notifier,
		log:      log,
		prom:     prom,
		metrics:  observability.NewJobMetrics(),
		now:      time.Now,
	}
}

func (w *Worker) Metrics() observability.JobSnapshot {
	return w.metrics.Snapshot()
}

func (w *Worker) Ready() bool {
	return w.ready.Load()
}

// Run blocks until ctx is cancelled and every in-flight job has finished.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker starting",
		"worker_id", w.cfg.WorkerID,
		"concurrency", w.cfg.Concurrency,
		"poll_interval", w.cfg.PollInterval.String(),
	)

	if n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.StaleLockTTL); err != nil {
		w.log.Warn("requeue stale jobs failed", "err", err)
	} else if n > 0 {
		w.log.Info("requeued stale jobs", "count", n)
	}

	w.ready.Store(true)

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.loop(ctx, slot)
		}(i)
	}

	<-ctx.Done()
	w.ready.Store(false)
	w.log.Info("worker received shutdown signal, draining")

	wg.Wait()
	w.log.Info("worker stopped", "metrics", w.metrics.Snapshot())
	return nil
}

func (w *Worker) loop(ctx context.Context, slot int) {
	workerID := fmt.Sprintf("%s/%d", w.cfg.WorkerID, slot)

	for {
		if ctx.Err() != nil {
			return
		}

		// in-flight jobs finish even after shutdown starts
		claimed, err := w.ProcessOne(context.WithoutCancel(ctx), workerID)
		if err != nil {
			w.log.Error("process job failed", "worker_id", workerID, "err", err)
		}
		if claimed {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.cfg.PollInterval):
		}
	}
}
