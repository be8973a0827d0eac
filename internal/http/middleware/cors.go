package middleware

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the configured browser origins. A single "*" allows any origin
// without credentials.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "X-Requested-With", HeaderRequestID, HeaderTraceID, "traceparent"},
		ExposeHeaders: []string{HeaderRequestID, HeaderTraceID},
	}
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
		if o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		allowed = []string{"http://localhost:3000"}
	}
	cfg.AllowOrigins = allowed
	cfg.AllowCredentials = true
	return cors.New(cfg)
}
