package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yungbote/promptgen-backend/internal/platform/ctxutil"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
)

func TestRequestIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		header   string
		wantEcho bool
	}{
		{"client id kept", "req-123", true},
		{"missing id generated", "", false},
		{"unsafe id replaced", "bad id\nwith newline", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestIDs())
			var seen *ctxutil.TraceData
			r.GET("/phases", func(c *gin.Context) {
				seen = ctxutil.GetTraceData(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/phases", nil)
			if tt.header != "" {
				req.Header.Set(HeaderRequestID, tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get(HeaderRequestID)
			if (got == tt.header) != tt.wantEcho || got == "" {
				t.Fatalf("request id=%q (sent %q)", got, tt.header)
			}
			if seen == nil || seen.RequestID != got || seen.TraceID == "" {
				t.Fatalf("trace data=%+v", seen)
			}
			if rec.Header().Get(HeaderTraceID) != seen.TraceID {
				t.Fatalf("trace header=%q", rec.Header().Get(HeaderTraceID))
			}
		})
	}
}

func TestAccessLogLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(RequestIDs(), AccessLog(logger.NewWithCore(core, true)))
	r.GET("/healthcheck", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/load-progress/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.POST("/generate-question", func(c *gin.Context) {
		_ = c.Error(errors.New("upstream down"))
		c.Status(http.StatusBadGateway)
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/healthcheck", nil),
		httptest.NewRequest(http.MethodGet, "/load-progress/abc", nil),
		httptest.NewRequest(http.MethodPost, "/generate-question", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("entries=%d", len(entries))
	}
	want := []zapcore.Level{zapcore.DebugLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != want[i] {
			t.Fatalf("entry %d level=%s want %s", i, e.Level, want[i])
		}
	}
	fields := entries[1].ContextMap()
	if fields["route"] != "/load-progress/:id" || fields["session_id"] == "abc" || fields["session_id"] == nil {
		t.Fatalf("fields=%v", fields)
	}
	if entries[2].ContextMap()["error"] != "upstream down" {
		t.Fatalf("error field=%v", entries[2].ContextMap()["error"])
	}
}

func TestLimitBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LimitBody(8))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	for _, tt := range []struct {
		body string
		want int
	}{
		{"small", http.StatusOK},
		{"much too large", http.StatusRequestEntityTooLarge},
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(tt.body)))
		if rec.Code != tt.want {
			t.Fatalf("body %q: status=%d want %d", tt.body, rec.Code, tt.want)
		}
	}
}
