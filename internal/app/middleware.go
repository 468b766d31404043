package app

import (
	"github.com/ecotrack/ecotrack-backend/internal/middleware"
	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
)

type Middleware struct {
	Trace *middleware.TraceMiddleware
}

func wireMiddleware(log *logger.Logger) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Trace: middleware.NewTraceMiddleware(log),
	}
}
