package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/promptgen-backend/internal/platform/ctxutil"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
)

// quietRoutes are polled by orchestrators and only logged at debug level.
var quietRoutes = map[string]bool{
	"/healthcheck": true,
	"/readyz":      true,
}

// AccessLog writes one line per request once the handler chain has finished.
// 5xx responses log at error level and 4xx at warn.
func AccessLog(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NewNop()
	}
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		reqLog := log
		if id := c.Param("id"); id != "" {
			reqLog = log.WithSession(id)
		}
		kv := append([]interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"latency", time.Since(began).String(),
		}, ctxutil.LogFields(c.Request.Context())...)
		if last := c.Errors.Last(); last != nil {
			kv = append(kv, "error", last.Error())
		}

		switch {
		case status >= 500:
			reqLog.Error("Request failed", kv...)
		case status >= 400:
			reqLog.Warn("Request rejected", kv...)
		case quietRoutes[route]:
			reqLog.Debug("Request served", kv...)
		default:
			reqLog.Info("Request served", kv...)
		}
	}
}
