package app

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/ecotrack/ecotrack-backend/internal/clients/redis"
	"github.com/ecotrack/ecotrack-backend/internal/platform/kgraph"
	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
	"github.com/ecotrack/ecotrack-backend/internal/platform/openai"
	"github.com/ecotrack/ecotrack-backend/internal/platform/qdrant"
	"github.com/ecotrack/ecotrack-backend/internal/platform/vector"
)

type Clients struct {
	Embedder       openai.Client
	VectorIndex    vector.Index
	Graph          kgraph.Client
	ExpansionCache redisclient.ExpansionCache
	closeGraph     func()
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	embedder, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	qdrantCfg, err := qdrant.ResolveConfigFromEnv()
	if err != nil {
		return Clients{}, fmt.Errorf("resolve qdrant config: %w", err)
	}
	index, err := qdrant.NewIndex(log, qdrantCfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init qdrant index: %w", err)
	}

	// Collection create is idempotent; losing a create race to another
	// replica at boot is fine.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := index.EnsureCollection(ctx); err != nil {
		return Clients{}, fmt.Errorf("ensure vector collection: %w", err)
	}

	graph, closeGraph, err := resolveGraphProvider(log, cfg)
	if err != nil {
		return Clients{}, err
	}

	var cache redisclient.ExpansionCache
	if cfg.RedisEnabled {
		cache, err = redisclient.NewExpansionCache(log)
		if err != nil {
			closeGraph()
			return Clients{}, fmt.Errorf("init expansion cache: %w", err)
		}
	}

	return Clients{
		Embedder:       embedder,
		VectorIndex:    index,
		Graph:          graph,
		ExpansionCache: cache,
		closeGraph:     closeGraph,
	}, nil
}

func (c Clients) Close() {
	if c.ExpansionCache != nil {
		_ = c.ExpansionCache.Close()
	}
	if c.closeGraph != nil {
		c.closeGraph()
	}
}
