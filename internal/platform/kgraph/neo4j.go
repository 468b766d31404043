package kgraph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ecotrack/ecotrack-backend/internal/platform/ctxutil"
	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
	"github.com/ecotrack/ecotrack-backend/internal/platform/neo4jdb"
)

// neo4jClient serves the same resolve/expand contract from a self-hosted
// graph mirror. Entity nodes carry the canonical Q-ids, a lowercase-indexed
// label, and BROADER / PART_OF / INSTANCE_OF relations.
type neo4jClient struct {
	log     *logger.Logger
	db      *neo4jdb.Client
	anchors []string
}

func NewNeo4jClient(log *logger.Logger, db *neo4jdb.Client) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if db == nil || db.Driver == nil {
		return nil, fmt.Errorf("neo4j client required")
	}
	c := &neo4jClient{
		log:     log.With("client", "Neo4jKGraph"),
		db:      db,
		anchors: anchorClassesFromEnv(),
	}
	log.Info("Neo4j knowledge graph client selected", "anchor_classes", len(c.anchors))
	return c, nil
}

func (c *neo4jClient) Resolve(ctx context.Context, query, language string) (*Entity, error) {
	ctx, cancel := ctxutil.WithBudget(ctx, resolveBudget())
	defer cancel()

	session := c.db.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.db.Database,
	})
	defer session.Close(ctx)

	record, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
CALL db.index.fulltext.queryNodes('entity_labels', $query) YIELD node, score
WHERE coalesce(node.lang, $lang) = $lang
RETURN node.id AS id, node.label AS label
ORDER BY score DESC
LIMIT 1
`, map[string]any{
			"query": query,
			"lang":  language,
		})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			return res.Record(), nil
		}
		return nil, res.Err()
	})
	if err != nil {
		return nil, classifyCallError("resolve", err)
	}
	if record == nil {
		return nil, nil
	}

	rec, ok := record.(*neo4j.Record)
	if !ok {
		return nil, nil
	}
	id, _ := rec.Get("id")
	label, _ := rec.Get("label")
	idStr, _ := id.(string)
	labelStr, _ := label.(string)
	if !IsEntityID(idStr) {
		return nil, nil
	}
	return &Entity{ID: strings.TrimSpace(idStr), Label: labelStr}, nil
}

func (c *neo4jClient) Expand(ctx context.Context, entityID, language string) ([]string, error) {
	entityID = strings.TrimSpace(entityID)
	if !IsEntityID(entityID) {
		return nil, fmt.Errorf("kgraph expand: invalid entity id %q", entityID)
	}

	ctx, cancel := ctxutil.WithBudget(ctx, expandBudget())
	defer cancel()

	session := c.db.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.db.Database,
	})
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (e:Entity {id: $entity_id})
MATCH (e)-[:BROADER|PART_OF|INSTANCE_OF]-(related:Entity)
WHERE EXISTS {
  MATCH (related)-[:BROADER|PART_OF|INSTANCE_OF*0..3]->(anchor:Entity)
  WHERE anchor.id IN $anchors
}
AND coalesce(related.lang, $lang) = $lang
RETURN DISTINCT related.label AS label
LIMIT $limit
`, map[string]any{
			"entity_id": entityID,
			"anchors":   c.anchors,
			"lang":      language,
			"limit":     expansionRowLimit,
		})
		if err != nil {
			return nil, err
		}

		labels := make([]string, 0, expansionRowLimit)
		for res.Next(ctx) {
			if v, ok := res.Record().Get("label"); ok {
				if s, ok := v.(string); ok {
					labels = append(labels, s)
				}
			}
		}
		return labels, res.Err()
	})
	if err != nil {
		return nil, classifyCallError("expand", err)
	}

	labels, _ := rows.([]string)
	return NormalizeLabels(labels), nil
}
