package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/promptgen-backend/internal/http/handlers"
	httpMW "github.com/yungbote/promptgen-backend/internal/http/middleware"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	ServiceName     string
	CORSOrigins     []string
	MaxRequestBytes int64

	DialogueHandler *httpH.DialogueHandler
	SessionHandler  *httpH.SessionHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestIDs())
	r.Use(httpMW.AccessLog(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.LimitBody(cfg.MaxRequestBytes))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Root)
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	// Dialogue
	if cfg.DialogueHandler != nil {
		r.POST("/generate-question", cfg.DialogueHandler.GenerateQuestion)
		r.POST("/explain-question", cfg.DialogueHandler.ExplainQuestion)
		r.POST("/generate-prompt", cfg.DialogueHandler.GeneratePrompt)
		r.GET("/phases", cfg.DialogueHandler.Phases)
	}

	// Saved sessions
	if cfg.SessionHandler != nil {
		r.POST("/save-progress", cfg.SessionHandler.SaveProgress)
		r.GET("/list-saves", cfg.SessionHandler.ListSaves)
		r.GET("/load-progress/:id", cfg.SessionHandler.LoadProgress)
		r.DELETE("/delete-save/:id", cfg.SessionHandler.DeleteSave)
	}

	return r
}
