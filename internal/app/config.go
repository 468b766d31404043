package app

import (
	"strings"

	"github.com/ecotrack/ecotrack-backend/internal/platform/envutil"
	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
)

type Config struct {
	Port           string
	ServiceName    string
	AllowedOrigins []string
	GraphProvider  string
	SemanticTopK   int
	RedisEnabled   bool
}

func LoadConfig(log *logger.Logger) Config {
	origins := strings.Split(envutil.String("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	cfg := Config{
		Port:           envutil.String("PORT", "8080"),
		ServiceName:    envutil.String("SERVICE_NAME", "ecotrack"),
		AllowedOrigins: origins,
		GraphProvider:  strings.ToLower(envutil.String("KG_PROVIDER", "wikidata")),
		SemanticTopK:   envutil.Int("SEMANTIC_SEARCH_TOP_K", 20),
		RedisEnabled:   envutil.String("REDIS_ADDR", "") != "",
	}

	log.Info("Loaded config",
		"port", cfg.Port,
		"graph_provider", cfg.GraphProvider,
		"semantic_top_k", cfg.SemanticTopK,
		"redis_enabled", cfg.RedisEnabled,
	)

	return cfg
}
