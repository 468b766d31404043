package app

import (
	"github.com/ecotrack/ecotrack-backend/internal/handlers"
	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
)

type Handlers struct {
	Search *handlers.SearchHandler
	Post   *handlers.PostHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Search: handlers.NewSearchHandler(serviceset.KeywordSearch, serviceset.SemanticSearch),
		Post:   handlers.NewPostHandler(serviceset.Post),
	}
}
