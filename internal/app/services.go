package app

import (
	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
	"github.com/ecotrack/ecotrack-backend/internal/services"
)

type Services struct {
	Post           services.PostService
	KeywordSearch  services.KeywordSearchService
	SemanticSearch services.SemanticSearchService
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")
	return Services{
		Post: services.NewPostService(
			reposet.Post,
			reposet.User,
			clients.Embedder,
			clients.VectorIndex,
			log,
		),
		KeywordSearch: services.NewKeywordSearchService(
			reposet.Post,
			reposet.User,
			reposet.PostLike,
			reposet.PostSave,
			clients.Graph,
			clients.ExpansionCache,
			log,
		),
		SemanticSearch: services.NewSemanticSearchService(
			reposet.Post,
			reposet.User,
			reposet.PostLike,
			reposet.PostSave,
			clients.Embedder,
			clients.VectorIndex,
			cfg.SemanticTopK,
			log,
		),
	}
}
