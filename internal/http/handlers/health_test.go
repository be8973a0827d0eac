package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestReadyReportsFailedChecks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(
		ReadyCheck{Name: "store", Check: func(context.Context) error { return errors.New("connection refused") }},
		ReadyCheck{Name: "cache", Check: func(context.Context) error { return nil }},
	)
	r := gin.New()
	r.GET("/readyz", h.Ready)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rec.Code)
	}
	var body struct {
		Status string            `json:"status"`
		Failed map[string]string `json:"failed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "unavailable" || len(body.Failed) != 1 || body.Failed["store"] != "connection refused" {
		t.Fatalf("body=%+v", body)
	}
}
