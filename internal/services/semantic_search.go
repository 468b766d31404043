package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ecotrack/ecotrack-backend/internal/observability"
	"github.com/ecotrack/ecotrack-backend/internal/platform/apierr"
	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
	"github.com/ecotrack/ecotrack-backend/internal/platform/openai"
	"github.com/ecotrack/ecotrack-backend/internal/platform/vector"
	"github.com/ecotrack/ecotrack-backend/internal/repos"
	"github.com/ecotrack/ecotrack-backend/internal/types"
)

const defaultSemanticTopK = 20

type SemanticSearchService interface {
	// Search embeds the query and retrieves the nearest posts from the
	// vector index. The embedding model, the index and the post store are
	// all hard dependencies; any failure surfaces to the caller. Result
	// order is the index ranking, never re-sorted locally.
	Search(ctx context.Context, query, username string) ([]PostResult, error)
}

type semanticSearchService struct {
	posts    repos.PostRepo
	users    repos.UserRepo
	likes    repos.PostLikeRepo
	saves    repos.PostSaveRepo
	embedder openai.Client
	index    vector.Index
	topK     int
	tracer   trace.Tracer
	log      *logger.Logger
}

func NewSemanticSearchService(
	posts repos.PostRepo,
	users repos.UserRepo,
	likes repos.PostLikeRepo,
	saves repos.PostSaveRepo,
	embedder openai.Client,
	index vector.Index,
	topK int,
	baseLog *logger.Logger,
) SemanticSearchService {
	if topK <= 0 {
		topK = defaultSemanticTopK
	}
	return &semanticSearchService{
		posts:    posts,
		users:    users,
		likes:    likes,
		saves:    saves,
		embedder: embedder,
		index:    index,
		topK:     topK,
		tracer:   observability.Tracer("semantic_search"),
		log:      baseLog.With("service", "SemanticSearchService"),
	}
}

func (s *semanticSearchService) Search(ctx context.Context, query, username string) ([]PostResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_query", errors.New("query must not be blank"))
	}
	if username == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_query", errors.New("username is required"))
	}

	// The viewer must exist before any model call is spent on the query.
	userCtx, userSpan := s.tracer.Start(ctx, "store.get_user")
	user, err := s.users.GetByUsername(userCtx, nil, username)
	if err != nil {
		userSpan.RecordError(err)
		userSpan.End()
		if errors.Is(err, repos.ErrNotFound) {
			return nil, apierr.New(http.StatusNotFound, "user_not_found", err)
		}
		return nil, apierr.New(http.StatusInternalServerError, "retrieval_failed", err)
	}
	userSpan.End()

	embedCtx, embedSpan := s.tracer.Start(ctx, "embedding.embed_query")
	queryVector, err := s.embedder.EmbedOne(embedCtx, query)
	if err != nil {
		embedSpan.RecordError(err)
		embedSpan.End()
		return nil, apierr.New(http.StatusBadGateway, "retrieval_failed", err)
	}
	embedSpan.End()

	searchCtx, searchSpan := s.tracer.Start(ctx, "vector.search",
		trace.WithAttributes(attribute.Int("top_k", s.topK)))
	matches, err := s.index.Search(searchCtx, queryVector, s.topK)
	if err != nil {
		searchSpan.RecordError(err)
		searchSpan.End()
		return nil, apierr.New(http.StatusBadGateway, "retrieval_failed", err)
	}
	searchSpan.End()
	if len(matches) == 0 {
		return []PostResult{}, nil
	}

	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.PostID)
	}

	fetchCtx, fetchSpan := s.tracer.Start(ctx, "store.get_posts",
		trace.WithAttributes(attribute.Int("match_count", len(ids))))
	rows, err := s.posts.GetByIDs(fetchCtx, nil, ids)
	if err != nil {
		fetchSpan.RecordError(err)
		fetchSpan.End()
		return nil, apierr.New(http.StatusInternalServerError, "retrieval_failed", err)
	}
	fetchSpan.End()

	byID := make(map[int64]*types.Post, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}

	// Hydrate in index rank order. Vectors whose post no longer exists are
	// skipped: deletes do not block on the index, so it can briefly hold
	// ids the store has already dropped.
	ordered := make([]*types.Post, 0, len(matches))
	for _, m := range matches {
		post, ok := byID[m.PostID]
		if !ok {
			s.log.Debug("skipping stale vector match", "post_id", m.PostID)
			continue
		}
		ordered = append(ordered, post)
	}

	decorateCtx, decorateSpan := s.tracer.Start(ctx, "store.decorate_results")
	results, err := decorateResults(decorateCtx, s.likes, s.saves, user.ID, ordered)
	if err != nil {
		decorateSpan.RecordError(err)
		decorateSpan.End()
		return nil, apierr.New(http.StatusInternalServerError, "retrieval_failed", err)
	}
	decorateSpan.End()

	return results, nil
}
