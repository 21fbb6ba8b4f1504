package middlewares

import "github.com/gin-gonic/gin"

// JSON only; nothing here should ever be framed or run script.
const defaultCSP = "default-src 'none'; frame-ancestors 'none'"

func SecurityHeaders(prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("X-XSS-Protection", "0")
		c.Header("Content-Security-Policy", defaultCSP)
		if prod {
			c.Header("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		c.Next()
	}
}
