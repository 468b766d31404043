package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ecotrack/ecotrack-backend/internal/platform/apierr"
	"github.com/ecotrack/ecotrack-backend/internal/platform/kgraph"
	"github.com/ecotrack/ecotrack-backend/internal/types"
)

func ts(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return &parsed
}

func newKeywordFixture(posts *fakePostRepo, graph *fakeGraph, cache *fakeCache, t *testing.T) KeywordSearchService {
	t.Helper()
	users := &fakeUserRepo{}
	likes := &fakePostLikeRepo{}
	saves := &fakePostSaveRepo{}
	if cache == nil {
		return NewKeywordSearchService(posts, users, likes, saves, graph, nil, newTestLogger(t))
	}
	return NewKeywordSearchService(posts, users, likes, saves, graph, cache, newTestLogger(t))
}

func TestKeywordSearchBlankQuery(t *testing.T) {
	svc := newKeywordFixture(&fakePostRepo{}, &fakeGraph{}, nil, t)

	_, err := svc.Search(context.Background(), "   ", "en", "")
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr, got %v", err)
	}
	if apiErr.Status != 400 || apiErr.Code != "invalid_query" {
		t.Fatalf("unexpected error: status=%d code=%s", apiErr.Status, apiErr.Code)
	}
}

func TestKeywordSearchExpandsViaGraph(t *testing.T) {
	posts := &fakePostRepo{}
	posts.Create(context.Background(), nil, []*types.Post{
		{Content: "found a plastic bottle on the beach", CreatedAt: ts(t, "2026-03-01T10:00:00Z")},
		{Content: "my new PET bottle recycling bin", CreatedAt: ts(t, "2026-03-02T10:00:00Z")},
		{Content: "drink container deposit refunded", CreatedAt: ts(t, "2026-03-03T10:00:00Z")},
		{Content: "composting again", CreatedAt: ts(t, "2026-03-04T10:00:00Z")},
	})
	graph := &fakeGraph{
		entity: &kgraph.Entity{ID: "Q1752848", Label: "Plastic Bottle"},
		labels: []string{"pet bottle", "drink container"},
	}

	svc := newKeywordFixture(posts, graph, nil, t)
	results, err := svc.Search(context.Background(), "Plastic Bottle", "en", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// Newest first across the union of all matched terms.
	if results[0].Content != "drink container deposit refunded" {
		t.Fatalf("unexpected first result: %q", results[0].Content)
	}
	if results[2].Content != "found a plastic bottle on the beach" {
		t.Fatalf("unexpected last result: %q", results[2].Content)
	}
}

func TestKeywordSearchResolvesWithOriginalCase(t *testing.T) {
	posts := &fakePostRepo{}
	posts.Create(context.Background(), nil, []*types.Post{
		{Content: "pet bottle pile", CreatedAt: ts(t, "2026-03-01T10:00:00Z")},
	})
	graph := &fakeGraph{entity: &kgraph.Entity{ID: "Q1752848", Label: "PET Bottle"}}

	svc := newKeywordFixture(posts, graph, nil, t)
	results, err := svc.Search(context.Background(), "  PET Bottle ", "en", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	// The resolver sees the caller's casing, only trimmed; lowercasing
	// happens in the keyword set.
	if graph.resolveQuery != "PET Bottle" {
		t.Fatalf("resolver received %q", graph.resolveQuery)
	}
	if len(results) != 1 {
		t.Fatalf("expected the lowercased term to match, got %d results", len(results))
	}
}

func TestKeywordSearchDeduplicatesAcrossTerms(t *testing.T) {
	posts := &fakePostRepo{}
	posts.Create(context.Background(), nil, []*types.Post{
		{Content: "my plastic bottle is now a pet bottle planter", CreatedAt: ts(t, "2026-03-01T10:00:00Z")},
	})
	graph := &fakeGraph{
		entity: &kgraph.Entity{ID: "Q1752848", Label: "plastic bottle"},
		labels: []string{"pet bottle"},
	}

	svc := newKeywordFixture(posts, graph, nil, t)
	results, err := svc.Search(context.Background(), "plastic bottle", "en", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("post matching two terms must appear once, got %d results", len(results))
	}
}

func TestKeywordSearchDegradesWhenResolveFails(t *testing.T) {
	posts := &fakePostRepo{}
	posts.Create(context.Background(), nil, []*types.Post{
		{Content: "plastic everywhere", CreatedAt: ts(t, "2026-03-01T10:00:00Z")},
	})
	graph := &fakeGraph{resolveErr: errors.New("resolver timeout")}

	svc := newKeywordFixture(posts, graph, nil, t)
	results, err := svc.Search(context.Background(), "plastic", "en", "")
	if err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected literal-only hit, got %d results", len(results))
	}
}

func TestKeywordSearchDegradesWhenExpandFails(t *testing.T) {
	posts := &fakePostRepo{}
	posts.Create(context.Background(), nil, []*types.Post{
		{Content: "plastic everywhere", CreatedAt: ts(t, "2026-03-01T10:00:00Z")},
		{Content: "pet bottle pile", CreatedAt: ts(t, "2026-03-02T10:00:00Z")},
	})
	graph := &fakeGraph{
		entity:    &kgraph.Entity{ID: "Q11474", Label: "plastic"},
		expandErr: errors.New("sparql unavailable"),
	}

	svc := newKeywordFixture(posts, graph, nil, t)
	results, err := svc.Search(context.Background(), "plastic", "en", "")
	if err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expansion should have been skipped, got %d results", len(results))
	}
}

func TestKeywordSearchDropsShortTerms(t *testing.T) {
	posts := &fakePostRepo{}
	posts.Create(context.Background(), nil, []*types.Post{
		{Content: "a b c", CreatedAt: ts(t, "2026-03-01T10:00:00Z")},
	})
	graph := &fakeGraph{
		entity: &kgraph.Entity{ID: "Q1", Label: "ab"},
		labels: []string{"x", "compost"},
	}

	svc := newKeywordFixture(posts, graph, nil, t)
	results, err := svc.Search(context.Background(), "a", "en", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	// Seed "a" and label "x" are too short; only "ab" and "compost" ran,
	// neither of which matches.
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestKeywordSearchNullTimestampsSortLast(t *testing.T) {
	posts := &fakePostRepo{}
	posts.Create(context.Background(), nil, []*types.Post{
		{Content: "plastic no date"},
		{Content: "plastic dated", CreatedAt: ts(t, "2026-01-01T00:00:00Z")},
		{Content: "plastic also no date"},
	})

	svc := newKeywordFixture(posts, &fakeGraph{}, nil, t)
	results, err := svc.Search(context.Background(), "plastic", "en", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Content != "plastic dated" {
		t.Fatalf("dated post should lead, got %q", results[0].Content)
	}
	// Undated posts keep their store order relative to each other.
	if results[1].Content != "plastic no date" || results[2].Content != "plastic also no date" {
		t.Fatalf("undated posts out of order: %q, %q", results[1].Content, results[2].Content)
	}
}

func TestKeywordSearchUsesExpansionCache(t *testing.T) {
	posts := &fakePostRepo{}
	graph := &fakeGraph{
		entity: &kgraph.Entity{ID: "Q11474", Label: "plastic"},
		labels: []string{"polymer"},
	}
	cache := &fakeCache{}

	svc := newKeywordFixture(posts, graph, cache, t)
	if _, err := svc.Search(context.Background(), "plastic", "en", ""); err != nil {
		t.Fatalf("first search: %v", err)
	}
	if _, err := svc.Search(context.Background(), "plastic", "en", ""); err != nil {
		t.Fatalf("second search: %v", err)
	}

	if graph.expandCall != 1 {
		t.Fatalf("expected a single graph expansion, got %d", graph.expandCall)
	}
	if cache.puts != 1 {
		t.Fatalf("expected a single cache write, got %d", cache.puts)
	}
}

func TestKeywordSearchStoreFailureSurfaces(t *testing.T) {
	posts := &fakePostRepo{searchErr: errors.New("connection refused")}

	svc := newKeywordFixture(posts, &fakeGraph{}, nil, t)
	_, err := svc.Search(context.Background(), "plastic", "en", "")
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr, got %v", err)
	}
	if apiErr.Status != 500 || apiErr.Code != "retrieval_failed" {
		t.Fatalf("unexpected error: status=%d code=%s", apiErr.Status, apiErr.Code)
	}
}

func TestKeywordSearchDecoratesViewerFlags(t *testing.T) {
	posts := &fakePostRepo{}
	created, _ := posts.Create(context.Background(), nil, []*types.Post{
		{Content: "plastic bin", CreatedAt: ts(t, "2026-03-01T10:00:00Z")},
	})
	users := &fakeUserRepo{users: []*types.User{{ID: 7, Username: "greta"}}}
	likes := &fakePostLikeRepo{}
	likes.Create(context.Background(), nil, []*types.PostLike{{PostID: created[0].ID, UserID: 7}})
	saves := &fakePostSaveRepo{}

	svc := NewKeywordSearchService(posts, users, likes, saves, &fakeGraph{}, nil, newTestLogger(t))
	results, err := svc.Search(context.Background(), "plastic", "en", "greta")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || !results[0].LikedByMe || results[0].SavedByMe {
		t.Fatalf("unexpected decoration: %+v", results)
	}
}
