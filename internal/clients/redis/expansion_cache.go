package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
)

// ExpansionCache is a best-effort cache for graph expansion label sets.
// Every failure path degrades to a live expansion call; nothing here is ever
// surfaced to a search request.
type ExpansionCache interface {
	Get(ctx context.Context, entityID, language string) ([]string, bool)
	Put(ctx context.Context, entityID, language string, labels []string)
	Close() error
}

type expansionCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewExpansionCache(log *logger.Logger) (ExpansionCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttl := 15 * time.Minute
	if v := strings.TrimSpace(os.Getenv("EXPANSION_CACHE_TTL")); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			ttl = parsed
		}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &expansionCache{
		log: log.With("service", "RedisExpansionCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *expansionCache) Get(ctx context.Context, entityID, language string) ([]string, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKey(entityID, language)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("expansion cache read failed (continuing)", "error", err)
		}
		return nil, false
	}
	var labels []string
	if err := json.Unmarshal(raw, &labels); err != nil {
		c.log.Warn("expansion cache entry corrupt (dropping)", "error", err)
		_ = c.rdb.Del(ctx, cacheKey(entityID, language)).Err()
		return nil, false
	}
	return labels, true
}

func (c *expansionCache) Put(ctx context.Context, entityID, language string, labels []string) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(labels)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(entityID, language), raw, c.ttl).Err(); err != nil {
		c.log.Warn("expansion cache write failed (continuing)", "error", err)
	}
}

func (c *expansionCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func cacheKey(entityID, language string) string {
	return "kgraph:expansion:" + strings.TrimSpace(entityID) + ":" + strings.TrimSpace(language)
}
