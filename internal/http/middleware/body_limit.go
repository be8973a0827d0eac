package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LimitBody caps request bodies at maxBytes. Reads past the cap fail with
// *http.MaxBytesError, which handlers report as a validation error.
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
