package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/bookinghub/internal/apperr"
	"github.com/gin-gonic/gin"
)

// RequireJSON rejects write requests that carry a non-JSON body. Bodyless
// writes (e.g. POST /bookings/:id/cancel) pass.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 {
				break
			}
			ct := strings.ToLower(c.GetHeader("Content-Type"))
			// "application/json; charset=utf-8" is fine
			if !strings.HasPrefix(ct, "application/json") {
				_ = c.Error(apperr.New(http.StatusUnsupportedMediaType, "Content-Type must be application/json"))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
