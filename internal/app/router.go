package app

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/promptgen-backend/internal/config"
	apphttp "github.com/yungbote/promptgen-backend/internal/http"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg *config.Config, handlers Handlers) *apphttp.Server {
	switch strings.ToLower(strings.TrimSpace(cfg.Env)) {
	case "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}
	serviceName := ""
	if cfg.OTel.Enabled {
		serviceName = cfg.OTel.ServiceName
		if serviceName == "" {
			serviceName = "promptgen-backend"
		}
	}
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:             log.With("component", "http"),
		ServiceName:     serviceName,
		CORSOrigins:     cfg.HTTP.CORSOrigins,
		MaxRequestBytes: cfg.HTTP.MaxRequestBytes,
		HealthHandler:   handlers.Health,
		DialogueHandler: handlers.Dialogue,
		SessionHandler:  handlers.Sessions,
	}, apphttp.ServerOptions{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout.Duration,
		IdleTimeout:       cfg.HTTP.IdleTimeout.Duration,
	})
}
