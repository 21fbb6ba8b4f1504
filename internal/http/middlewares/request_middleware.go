package middlewares

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		ctx.Writer.Header().Set(requestIDHeader, id)
		ctx.Set(CtxRequestID, id)

		ctx.Next()
	}
}

func RequestIDFrom(ctx *gin.Context) string {
	return ctx.GetString(CtxRequestID)
}

func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = ctx.Request.URL.Path // 404s have no template
		}

		attrs := []any{
			"method", ctx.Request.Method,
			"route", route,
			"status", ctx.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", RequestIDFrom(ctx),
		}

		if id, ok := UserIDFromContext(ctx); ok {
			attrs = append(attrs, "user_id", id)
		}
		if jobID := ctx.GetString(CtxJobID); jobID != "" {
			attrs = append(attrs, "job_id", jobID)
		}

		log.InfoContext(ctx.Request.Context(), "http_request", attrs...)
	}
}
