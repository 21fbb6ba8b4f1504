package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves /healthz (process up) and /readyz (accepting work and
// the database answers).
func (w *Worker) HealthHandler(db Pinger) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/readyz", func(c *gin.Context) {
		if !w.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
			defer cancel()

			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db": "down"})
				return
			}
		}

		snap := w.Metrics()
		c.JSON(http.StatusOK, gin.H{
			"status":  "ready",
			"claimed": snap.Claimed,
			"done":    snap.Done,
			"failed":  snap.Failed,
		})
	})

	return r
}
