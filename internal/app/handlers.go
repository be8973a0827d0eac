package app

import (
	"github.com/yungbote/promptgen-backend/internal/config"
	httpH "github.com/yungbote/promptgen-backend/internal/http/handlers"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
	"github.com/yungbote/promptgen-backend/internal/store"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Dialogue *httpH.DialogueHandler
	Sessions *httpH.SessionHandler
}

func wireHandlers(log *logger.Logger, cfg *config.Config, clients Clients, services Services) Handlers {
	log.Info("Wiring handlers...")
	var checks []httpH.ReadyCheck
	if p, ok := clients.Store.(store.Pinger); ok {
		checks = append(checks, httpH.ReadyCheck{Name: "store", Check: p.Ping})
	}
	total := cfg.Dialogue.DefaultTotalQuestions
	return Handlers{
		Health:   httpH.NewHealthHandler(checks...),
		Dialogue: httpH.NewDialogueHandler(services.Dialogue, total, cfg.Dialogue.Phases),
		Sessions: httpH.NewSessionHandler(services.Sessions, total),
	}
}
