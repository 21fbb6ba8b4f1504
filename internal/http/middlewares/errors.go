package middlewares

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/bookinghub/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const msgInternal = "Internal server error"

// errorBody is the only error shape clients ever see.
type errorBody struct {
	Message string         `json:"message"`
	Details apperr.Details `json:"details,omitempty"`
}

// ErrorHandler renders the last error a handler or middleware recorded with
// c.Error. Unknown errors become a generic 500 and are logged in full.
func ErrorHandler(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, body := classify(err)

		if status >= http.StatusInternalServerError {
			log.ErrorContext(c.Request.Context(), "request failed",
				"err", err,
				"method", c.Request.Method,
				"route", c.FullPath(),
				"path", c.Request.URL.Path,
				"request_id", RequestIDFrom(c),
			)
		}

		c.AbortWithStatusJSON(status, body)
	}
}

func classify(err error) (int, errorBody) {
	if ae, ok := apperr.As(err); ok {
		if ae.Status == http.StatusInternalServerError {
			return ae.Status, errorBody{Message: msgInternal}
		}
		return ae.Status, errorBody{Message: ae.Message, Details: ae.Details}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		ae := apperr.FromBindError(verrs, nil)
		return ae.Status, errorBody{Message: ae.Message, Details: ae.Details}
	}

	return http.StatusInternalServerError, errorBody{Message: msgInternal}
}

// NotFoundHandler is mounted as gin's NoRoute.
func NotFoundHandler(c *gin.Context) {
	_ = c.Error(apperr.NotFound("Route " + c.Request.URL.Path + " not found"))
	c.Abort()
}

// Recovery turns panics into the generic 500 body.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.ErrorContext(c.Request.Context(), "panic recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", RequestIDFrom(c),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Message: msgInternal})
	})
}
