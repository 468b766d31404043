package app

import (
	"github.com/gin-gonic/gin"

	"github.com/ecotrack/ecotrack-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:     cfg.ServiceName,
		AllowedOrigins:  cfg.AllowedOrigins,
		TraceMiddleware: mw.Trace,
		SearchHandler:   handlerset.Search,
		PostHandler:     handlerset.Post,
	})
}
