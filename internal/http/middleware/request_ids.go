package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/promptgen-backend/internal/platform/ctxutil"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderTraceID   = "X-Trace-Id"
)

// Client supplied ids are echoed into logs, so only short opaque tokens are accepted.
var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// RequestIDs tags each request with a request id and a trace id, stores both on
// the request context for loggers and returns them as response headers.
//
// The trace id comes from the active server span when otelgin runs first, then
// from X-Trace-Id, and is generated otherwise.
func RequestIDs() gin.HandlerFunc {
	return func(c *gin.Context) {
		ids := &ctxutil.TraceData{
			RequestID: clientID(c.GetHeader(HeaderRequestID)),
		}

		span := trace.SpanFromContext(c.Request.Context())
		if sc := span.SpanContext(); sc.HasTraceID() {
			ids.TraceID = sc.TraceID().String()
		} else {
			ids.TraceID = clientID(c.GetHeader(HeaderTraceID))
		}
		span.SetAttributes(attribute.String("http.request_id", ids.RequestID))

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), ids))
		h := c.Writer.Header()
		h.Set(HeaderRequestID, ids.RequestID)
		h.Set(HeaderTraceID, ids.TraceID)
		c.Next()
	}
}

func clientID(raw string) string {
	if clientIDPattern.MatchString(raw) {
		return raw
	}
	return uuid.NewString()
}
