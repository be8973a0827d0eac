package app

import (
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
	"github.com/yungbote/promptgen-backend/internal/services"
)

type Services struct {
	Dialogue services.DialogueService
	Sessions services.SessionService
}

func wireServices(log *logger.Logger, clients Clients) Services {
	log.Info("Wiring services...")
	return Services{
		Dialogue: services.NewDialogueService(clients.Generator, log),
		Sessions: services.NewSessionService(clients.Store, log),
	}
}
