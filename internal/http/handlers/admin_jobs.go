package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/geocoder89/bookinghub/internal/apperr"
	"github.com/geocoder89/bookinghub/internal/domain/job"
	"github.com/geocoder89/bookinghub/internal/jobs"
	"github.com/gin-gonic/gin"
)

const msgJobNotFound = "Job not found"

type AdminJobsHandler struct {
	repo AdminJobsStore
}

func NewAdminJobsHandler(repo AdminJobsStore) *AdminJobsHandler {
	return &AdminJobsHandler{repo: repo}
}

// account mail payloads carry live tokens; admins see the envelope only
func redactJob(j job.Job) job.Job {
	switch jobs.JobType(j.Type) {
	case jobs.JobEmailVerification, jobs.JobPasswordReset:
		j.Payload = json.RawMessage(`{"redacted":true}`)
	}
	return j
}

// GET /admin/jobs/:id
func (h *AdminJobsHandler) GetByID(ctx *gin.Context) {
	id, ok := pathID(ctx, msgJobNotFound)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	j, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			fail(ctx, apperr.NotFound(msgJobNotFound))
			return
		}
		failInternal(ctx, "Could not load job", err)
		return
	}

	ctx.JSON(http.StatusOK, redactJob(j))
}

// POST /admin/jobs/:id/retry puts a failed job back in the queue.
func (h *AdminJobsHandler) Retry(ctx *gin.Context) {
	id, ok := pathID(ctx, msgJobNotFound)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.repo.Retry(cctx, id); err != nil {
		switch {
		case errors.Is(err, job.ErrJobNotFound):
			fail(ctx, apperr.NotFound(msgJobNotFound))
		case errors.Is(err, job.ErrJobNotFailed):
			fail(ctx, apperr.Conflict("Only failed jobs can be retried"))
		default:
			failInternal(ctx, "Could not retry job", err)
		}
		return
	}

	j, err := h.repo.GetByID(cctx, id)
	if err != nil {
		failInternal(ctx, "Could not load job", err)
		return
	}

	ctx.JSON(http.StatusOK, redactJob(j))
}
