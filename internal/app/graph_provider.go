package app

import (
	"context"
	"fmt"

	"github.com/ecotrack/ecotrack-backend/internal/platform/kgraph"
	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
	"github.com/ecotrack/ecotrack-backend/internal/platform/neo4jdb"
)

var (
	newWikidataClient = kgraph.NewWikidataClient
	newNeo4jClient    = kgraph.NewNeo4jClient
	newNeo4jDB        = neo4jdb.NewFromEnv
)

type GraphProviderBootstrapErrorCode string

const (
	GraphProviderBootstrapErrorInvalidProvider  GraphProviderBootstrapErrorCode = "invalid_provider"
	GraphProviderBootstrapErrorMissingNeo4jURI  GraphProviderBootstrapErrorCode = "missing_neo4j_uri"
	GraphProviderBootstrapErrorProviderInitFail GraphProviderBootstrapErrorCode = "provider_init_failed"
)

type GraphProviderBootstrapError struct {
	Code     GraphProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *GraphProviderBootstrapError) Error() string {
	if e == nil {
		return "graph provider bootstrap failed"
	}
	return fmt.Sprintf("graph provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *GraphProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveGraphProvider selects the knowledge graph backend. "wikidata" talks
// to the public endpoints over HTTP; "neo4j" expects a self-hosted graph and
// requires NEO4J_URI.
func resolveGraphProvider(log *logger.Logger, cfg Config) (kgraph.Client, func(), error) {
	switch cfg.GraphProvider {
	case "wikidata", "":
		log.Info("Selecting knowledge graph provider", "provider", "wikidata")
		client, err := newWikidataClient(log)
		if err != nil {
			return nil, nil, &GraphProviderBootstrapError{
				Code:     GraphProviderBootstrapErrorProviderInitFail,
				Provider: "wikidata",
				Cause:    err,
			}
		}
		return client, func() {}, nil

	case "neo4j":
		log.Info("Selecting knowledge graph provider", "provider", "neo4j")
		db, err := newNeo4jDB(log)
		if err != nil {
			return nil, nil, &GraphProviderBootstrapError{
				Code:     GraphProviderBootstrapErrorProviderInitFail,
				Provider: "neo4j",
				Cause:    err,
			}
		}
		if db == nil {
			return nil, nil, &GraphProviderBootstrapError{
				Code:     GraphProviderBootstrapErrorMissingNeo4jURI,
				Provider: "neo4j",
				Cause:    fmt.Errorf("NEO4J_URI is not set"),
			}
		}
		client, err := newNeo4jClient(log, db)
		if err != nil {
			_ = db.Close(context.Background())
			return nil, nil, &GraphProviderBootstrapError{
				Code:     GraphProviderBootstrapErrorProviderInitFail,
				Provider: "neo4j",
				Cause:    err,
			}
		}
		return client, func() { _ = db.Close(context.Background()) }, nil

	default:
		return nil, nil, &GraphProviderBootstrapError{
			Code:     GraphProviderBootstrapErrorInvalidProvider,
			Provider: cfg.GraphProvider,
			Cause:    fmt.Errorf("unknown provider %q", cfg.GraphProvider),
		}
	}
}
