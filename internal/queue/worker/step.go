package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/bookinghub/internal/domain/job"
	"github.com/geocoder89/bookinghub/internal/jobs"
	"github.com/geocoder89/bookinghub/internal/notifications"
)

// errPermanent marks failures that retrying cannot fix.
var errPermanent = errors.New("permanent job failure")

// ProcessOne claims and runs at most one job. It reports whether a job was
// claimed.
func (w *Worker) ProcessOne(ctx context.Context, workerID string) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.repo.ClaimNext(claimCtx, workerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("claim: %w", err)
	}

	w.metrics.IncClaimed()
	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := w.now()
	runErr := w.execute(ctx, j)
	elapsed := w.now().Sub(start)
	w.metrics.ObserveDuration(elapsed)

	if runErr != nil {
		return true, w.handleFailure(ctx, j, runErr, elapsed)
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, fmt.Errorf("mark done: %w", err)
	}

	w.metrics.IncDone()
	w.prom.ObserveJob(j.Type, "done", elapsed)
	w.log.Info("job done", "job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts+1, "duration_ms", elapsed.Milliseconds())
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	payload, err := jobs.DecodePayload(j)
	if err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}

	switch p := payload.(type) {
	case jobs.BookingConfirmationPayload:
		return w.notifier.SendBookingConfirmation(ctx, notifications.BookingConfirmationInput{
			BookingID:        p.BookingID,
			Email:            p.Email,
			Name:             p.Name,
			AppointmentTitle: p.AppointmentTitle,
			StartAt:          p.StartAt,
		})
	case jobs.EmailVerificationPayload:
		return w.notifier.SendVerificationEmail(ctx, notifications.VerificationEmailInput(p))
	case jobs.PasswordResetPayload:
		return w.notifier.SendPasswordReset(ctx, notifications.PasswordResetInput(p))
	default:
		return fmt.Errorf("%w: no handler for %s", errPermanent, j.Type)
	}
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, runErr error, elapsed time.Duration) error {
	msg := runErr.Error()

	if errors.Is(runErr, errPermanent) || j.Exhausted() {
		w.metrics.IncFailed()
		w.metrics.IncDeadLettered()
		w.prom.ObserveJob(j.Type, "failed", elapsed)
		w.log.Error("job failed permanently", "job_id", j.ID, "job_type", j.Type, "attempts", j.Attempts+1, "err", msg)

		if err := w.repo.MarkFailed(ctx, j.ID, msg); err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
		return nil
	}

	runAt := w.now().Add(ExponentialBackoff(j.Attempts)).UTC()

	w.metrics.IncRetried()
	w.prom.ObserveJob(j.Type, "retry", elapsed)
	w.log.Warn("job failed, rescheduled", "job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts+1, "run_at", runAt, "err", msg)

	if err := w.repo.Reschedule(ctx, j.ID, runAt, msg); err != nil {
		return fmt.Errorf("reschedule: %w", err)
	}
	return nil
}
