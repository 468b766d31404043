package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ecotrack/ecotrack-backend/internal/handlers"
	"github.com/ecotrack/ecotrack-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName     string
	AllowedOrigins  []string
	TraceMiddleware *middleware.TraceMiddleware
	SearchHandler   *handlers.SearchHandler
	PostHandler     *handlers.PostHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(cfg.TraceMiddleware.Attach())
	router.Use(cfg.TraceMiddleware.RequestLog())

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	// Search
	router.GET("/search/keyword", cfg.SearchHandler.Keyword)
	router.GET("/search/semantic", cfg.SearchHandler.Semantic)

	// Posts
	router.POST("/posts", cfg.PostHandler.Create)
	router.GET("/posts", cfg.PostHandler.List)
	router.GET("/posts/:id", cfg.PostHandler.GetByID)
	router.PUT("/posts/:id", cfg.PostHandler.Update)
	router.DELETE("/posts/:id", cfg.PostHandler.Delete)

	return router
}
