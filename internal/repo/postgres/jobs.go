package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/bookinghub/internal/domain/job"
	"github.com/geocoder89/bookinghub/internal/observability"
	"github.com/geocoder89/bookinghub/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const jobColumns = `id, type, payload, status, attempts, max_attempts, run_at, locked_at, locked_by,
	last_error, idempotency_key, priority, user_id, created_at, updated_at`

type JobsRepo struct {
	db DBTX
	observer
}

func NewJobsRepo(db DBTX, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{db: db, observer: observer{prom: prom}}
}

func scanJob(row pgx.Row) (job.Job, error) {
	var j job.Job
	var status string

	err := row.Scan(
		&j.ID, &j.Type, &j.Payload, &status,
		&j.Attempts, &j.MaxAttempts,
		&j.RunAt, &j.LockedAt, &j.LockedBy,
		&j.LastError, &j.IdempotencyKey, &j.Priority, &j.UserID,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return job.Job{}, err
	}

	j.Status = job.Status(status)
	return j, nil
}

func (r *JobsRepo) insert(ctx context.Context, q Querier, op string, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)

	err := r.observe(op, func() error {
		_, err := q.Exec(ctx, `INSERT INTO jobs (`+jobColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
			j.ID, j.Type, j.Payload, string(j.Status), j.Attempts, j.MaxAttempts,
			j.RunAt, j.LockedAt, j.LockedBy, j.LastError, j.IdempotencyKey,
			j.Priority, j.UserID, j.CreatedAt, j.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return job.Job{}, err
	}

	return j, nil
}

func (r *JobsRepo) Create(ctx context.Context, req job.CreateRequest) (job.Job, error) {
	return r.insert(ctx, r.db, "jobs.create", req)
}

// CreateTx enqueues inside the caller's transaction so the job only exists
// if the business row commits.
func (r *JobsRepo) CreateTx(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error) {
	return r.insert(ctx, tx, "jobs.create_tx", req)
}

// ClaimNext locks one runnable job with SKIP LOCKED so concurrent workers
// never pick the same row.
func (r *JobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	var j job.Job

	err := r.observe("jobs.claim_next", func() error {
		var err error
		j, err = scanJob(r.db.QueryRow(ctx, `
		WITH next AS (
			SELECT id
			FROM jobs
			WHERE status = 'pending'
			  AND run_at <= NOW()
			  AND attempts < max_attempts
			ORDER BY priority DESC, run_at ASC, created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE jobs
		SET status = 'processing',
		    locked_at = NOW(),
		    locked_by = $1,
		    updated_at = NOW()
		WHERE id = (SELECT id FROM next)
		RETURNING `+jobColumns, workerID))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	})
	if err != nil {
		return job.Job{}, err
	}
	if j.ID == "" {
		return job.Job{}, job.ErrJobNotFound
	}

	return j, nil
}

func (r *JobsRepo) exec(ctx context.Context, op, sql string, args ...any) error {
	var tag pgconn.CommandTag

	err := r.observe(op, func() error {
		var err error
		tag, err = r.db.Exec(ctx, sql, args...)
		return err
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

func (r *JobsRepo) MarkDone(ctx context.Context, id string) error {
	return r.exec(ctx, "jobs.mark_done", `
		UPDATE jobs
		SET status = 'done',
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE id = $1`, id)
}

func (r *JobsRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.exec(ctx, "jobs.mark_failed", `
		UPDATE jobs
		SET status = 'failed',
		    attempts = attempts + 1,
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = $2,
		    updated_at = NOW()
		WHERE id = $1`, id, errMsg)
}

func (r *JobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	return r.exec(ctx, "jobs.reschedule", `
		UPDATE jobs
		SET status = 'pending',
		    attempts = attempts + 1,
		    run_at = $2,
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = $3,
		    updated_at = NOW()
		WHERE id = $1`, id, runAt, errMsg)
}

// RequeueStaleProcessing releases jobs whose worker died mid-run.
func (r *JobsRepo) RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error) {
	secs := int64(lockTTL.Seconds())
	if secs <= 0 {
		secs = 30
	}

	var n int64
	err := r.observe("jobs.requeue_stale", func() error {
		tag, err := r.db.Exec(ctx, `
		UPDATE jobs
		SET status = 'pending',
		    locked_at = NULL,
		    locked_by = NULL,
		    updated_at = NOW()
		WHERE status = 'processing'
		  AND locked_at IS NOT NULL
		  AND locked_at < NOW() - ($1 * INTERVAL '1 second')`, secs)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})

	return n, err
}

func (r *JobsRepo) GetByID(ctx context.Context, id string) (job.Job, error) {
	if !utils.IsUUID(id) {
		return job.Job{}, job.ErrJobNotFound
	}

	var j job.Job
	err := r.observe("jobs.get_by_id", func() error {
		var err error
		j, err = scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	})
	if err != nil {
		return job.Job{}, err
	}
	if j.ID == "" {
		return job.Job{}, job.ErrJobNotFound
	}

	return j, nil
}

// Retry moves a failed job back to pending with a fresh attempt budget.
func (r *JobsRepo) Retry(ctx context.Context, id string) error {
	if !utils.IsUUID(id) {
		return job.ErrJobNotFound
	}

	var status string
	err := r.observe("jobs.retry.check_status", func() error {
		return r.db.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, id).Scan(&status)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.ErrJobNotFound
		}
		return err
	}

	if job.Status(status) != job.StatusFailed {
		return job.ErrJobNotFailed
	}

	return r.exec(ctx, "jobs.retry.requeue", `
		UPDATE jobs
		SET status = 'pending',
		    attempts = 0,
		    run_at = NOW(),
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE id = $1`, id)
}
