package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/bookinghub/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *pgxpool.Pool and *redisclient.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// NewHealthHandler takes the dependencies readiness depends on; a nil redis
// means the process runs without it.
func NewHealthHandler(db Pinger, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.Ping(cctx); err != nil {
			fail(ctx, apperr.Unavailable("Database not ready").Wrap(err))
			return
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(cctx); err != nil {
			fail(ctx, apperr.Unavailable("Redis not ready").Wrap(err))
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
