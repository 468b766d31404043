package services

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	redisclient "github.com/ecotrack/ecotrack-backend/internal/clients/redis"
	"github.com/ecotrack/ecotrack-backend/internal/observability"
	"github.com/ecotrack/ecotrack-backend/internal/platform/apierr"
	"github.com/ecotrack/ecotrack-backend/internal/platform/kgraph"
	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
	"github.com/ecotrack/ecotrack-backend/internal/repos"
	"github.com/ecotrack/ecotrack-backend/internal/types"
)

const defaultLanguage = "en"

// searchConcurrency caps the per-term fan-out against the post store.
const searchConcurrency = 4

type KeywordSearchService interface {
	// Search runs graph-assisted keyword retrieval. The knowledge graph is a
	// soft dependency: resolution or expansion failures narrow the keyword
	// set but never fail the request. Username is optional and only drives
	// the liked/saved flags on results.
	Search(ctx context.Context, query, language, username string) ([]PostResult, error)
}

type keywordSearchService struct {
	posts  repos.PostRepo
	users  repos.UserRepo
	likes  repos.PostLikeRepo
	saves  repos.PostSaveRepo
	graph  kgraph.Client
	cache  redisclient.ExpansionCache
	tracer trace.Tracer
	log    *logger.Logger
}

// NewKeywordSearchService wires the keyword retrieval path. cache may be nil
// when no redis is configured; every expansion then goes to the graph.
func NewKeywordSearchService(
	posts repos.PostRepo,
	users repos.UserRepo,
	likes repos.PostLikeRepo,
	saves repos.PostSaveRepo,
	graph kgraph.Client,
	cache redisclient.ExpansionCache,
	baseLog *logger.Logger,
) KeywordSearchService {
	return &keywordSearchService{
		posts:  posts,
		users:  users,
		likes:  likes,
		saves:  saves,
		graph:  graph,
		cache:  cache,
		tracer: observability.Tracer("keyword_search"),
		log:    baseLog.With("service", "KeywordSearchService"),
	}
}

func (s *keywordSearchService) Search(ctx context.Context, query, language, username string) ([]PostResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_query", errors.New("query must not be blank"))
	}
	if language == "" {
		language = defaultLanguage
	}

	terms := s.buildKeywordSet(ctx, trimmed, language)
	if len(terms) == 0 {
		return []PostResult{}, nil
	}

	posts, err := s.fanOut(ctx, terms)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "retrieval_failed", err)
	}

	sortByRecency(posts)

	viewerID := s.resolveViewer(ctx, username)
	decorateCtx, span := s.tracer.Start(ctx, "store.decorate_results")
	results, err := decorateResults(decorateCtx, s.likes, s.saves, viewerID, posts)
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, apierr.New(http.StatusInternalServerError, "retrieval_failed", err)
	}
	span.End()

	return results, nil
}

// buildKeywordSet assembles seed + resolved label + expansion labels,
// lowercased and deduplicated, then drops terms shorter than two runes.
// The returned slice is sorted so the store fan-out order is deterministic.
// The resolver gets the trimmed query with its case intact; lowercasing is
// local to the keyword set.
func (s *keywordSearchService) buildKeywordSet(ctx context.Context, trimmed, language string) []string {
	seed := strings.ToLower(trimmed)
	set := map[string]struct{}{seed: {}}

	resolveCtx, span := s.tracer.Start(ctx, "kgraph.resolve",
		trace.WithAttributes(attribute.String("query", trimmed), attribute.String("language", language)))
	entity, err := s.graph.Resolve(resolveCtx, trimmed, language)
	if err != nil {
		span.RecordError(err)
	}
	span.End()

	if err != nil {
		s.log.Warn("entity resolution degraded", "query", trimmed, "error", err)
	} else if entity != nil {
		set[strings.ToLower(strings.TrimSpace(entity.Label))] = struct{}{}

		for _, label := range s.expand(ctx, entity.ID, language) {
			set[label] = struct{}{}
		}
	}

	terms := make([]string, 0, len(set))
	for term := range set {
		if utf8.RuneCountInString(term) < 2 {
			continue
		}
		terms = append(terms, term)
	}
	sort.Strings(terms)

	return terms
}

func (s *keywordSearchService) expand(ctx context.Context, entityID, language string) []string {
	if s.cache != nil {
		if labels, ok := s.cache.Get(ctx, entityID, language); ok {
			return labels
		}
	}

	expandCtx, span := s.tracer.Start(ctx, "kgraph.expand",
		trace.WithAttributes(attribute.String("entity_id", entityID), attribute.String("language", language)))
	labels, err := s.graph.Expand(expandCtx, entityID, language)
	if err != nil {
		span.RecordError(err)
	}
	span.End()

	if err != nil {
		s.log.Warn("graph expansion degraded", "entity_id", entityID, "error", err)
		return nil
	}

	if s.cache != nil {
		s.cache.Put(ctx, entityID, language, labels)
	}

	return labels
}

// fanOut runs one substring search per term and unions the hits. Union
// order follows term order, then per-term store order, so identical
// timestamps keep a stable relative order through the final sort.
func (s *keywordSearchService) fanOut(ctx context.Context, terms []string) ([]*types.Post, error) {
	ctx, span := s.tracer.Start(ctx, "store.search_content",
		trace.WithAttributes(attribute.Int("term_count", len(terms))))
	defer span.End()

	perTerm := make([][]*types.Post, len(terms))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchConcurrency)
	for i, term := range terms {
		g.Go(func() error {
			hits, err := s.posts.SearchContent(gctx, nil, term)
			if err != nil {
				return err
			}
			mu.Lock()
			perTerm[i] = hits
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	seen := make(map[int64]struct{})
	var union []*types.Post
	for _, hits := range perTerm {
		for _, post := range hits {
			if _, ok := seen[post.ID]; ok {
				continue
			}
			seen[post.ID] = struct{}{}
			union = append(union, post)
		}
	}

	return union, nil
}

// sortByRecency orders newest first; posts without a timestamp sort last.
// The sort is stable so ties keep their union order.
func sortByRecency(posts []*types.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].CreatedAt, posts[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// resolveViewer is best effort: an unknown or failing username lookup just
// leaves the interaction flags unset.
func (s *keywordSearchService) resolveViewer(ctx context.Context, username string) int64 {
	if username == "" {
		return 0
	}

	user, err := s.users.GetByUsername(ctx, nil, username)
	if err != nil {
		s.log.Warn("viewer lookup failed", "username", username, "error", err)
		return 0
	}

	return user.ID
}
