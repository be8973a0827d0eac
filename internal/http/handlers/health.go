package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const banner = "Project Prompt Generator Backend is running"

// ReadyCheck reports whether a dependency can serve traffic.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	checks  []ReadyCheck
	timeout time.Duration
}

func NewHealthHandler(checks ...ReadyCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Root serves the service banner on GET /.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": banner})
}

// HealthCheck is the liveness probe; it never touches dependencies.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Ready runs every registered check and answers 503 naming the ones that failed.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	failed := map[string]string{}
	for _, rc := range h.checks {
		if err := rc.Check(ctx); err != nil {
			failed[rc.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
