package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ecotrack/ecotrack-backend/internal/platform/apierr"
	"github.com/ecotrack/ecotrack-backend/internal/platform/vector"
	"github.com/ecotrack/ecotrack-backend/internal/types"
)

func newSemanticFixture(t *testing.T, posts *fakePostRepo, users *fakeUserRepo, embedder *fakeEmbedder, index *fakeIndex) SemanticSearchService {
	t.Helper()
	return NewSemanticSearchService(posts, users, &fakePostLikeRepo{}, &fakePostSaveRepo{}, embedder, index, 0, newTestLogger(t))
}

func TestSemanticSearchUnknownUserFailsBeforeEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{embedErr: errors.New("should not be called")}
	svc := newSemanticFixture(t, &fakePostRepo{}, &fakeUserRepo{}, embedder, &fakeIndex{})

	_, err := svc.Search(context.Background(), "zero waste tips", "ghost")
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr, got %v", err)
	}
	if apiErr.Status != 404 || apiErr.Code != "user_not_found" {
		t.Fatalf("unexpected error: status=%d code=%s", apiErr.Status, apiErr.Code)
	}
}

func TestSemanticSearchPreservesIndexRank(t *testing.T) {
	posts := &fakePostRepo{}
	posts.Create(context.Background(), nil, []*types.Post{
		{Content: "first"},  // id 1
		{Content: "second"}, // id 2
		{Content: "third"},  // id 3
	})
	users := &fakeUserRepo{users: []*types.User{{ID: 1, Username: "greta"}}}
	index := &fakeIndex{matches: []vector.Match{
		{PostID: 3, Score: 0.9},
		{PostID: 1, Score: 0.7},
		{PostID: 2, Score: 0.5},
	}}

	svc := newSemanticFixture(t, posts, users, &fakeEmbedder{vec: []float32{0.1}}, index)
	results, err := svc.Search(context.Background(), "bottles", "greta")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	got := []int64{results[0].ID, results[1].ID, results[2].ID}
	want := []int64{3, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank order not preserved: got %v want %v", got, want)
		}
	}
}

func TestSemanticSearchSkipsStaleVectors(t *testing.T) {
	posts := &fakePostRepo{}
	posts.Create(context.Background(), nil, []*types.Post{{Content: "survivor"}})
	users := &fakeUserRepo{users: []*types.User{{ID: 1, Username: "greta"}}}
	index := &fakeIndex{matches: []vector.Match{
		{PostID: 99, Score: 0.9}, // deleted post still in the index
		{PostID: 1, Score: 0.4},
	}}

	svc := newSemanticFixture(t, posts, users, &fakeEmbedder{vec: []float32{0.1}}, index)
	results, err := svc.Search(context.Background(), "bottles", "greta")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != 1 {
		t.Fatalf("expected only the surviving post, got %+v", results)
	}
}

func TestSemanticSearchEmbeddingFailureSurfaces(t *testing.T) {
	users := &fakeUserRepo{users: []*types.User{{ID: 1, Username: "greta"}}}
	embedder := &fakeEmbedder{embedErr: errors.New("model unavailable")}

	svc := newSemanticFixture(t, &fakePostRepo{}, users, embedder, &fakeIndex{})
	_, err := svc.Search(context.Background(), "bottles", "greta")
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr, got %v", err)
	}
	if apiErr.Status != 502 || apiErr.Code != "retrieval_failed" {
		t.Fatalf("unexpected error: status=%d code=%s", apiErr.Status, apiErr.Code)
	}
}

func TestSemanticSearchIndexFailureSurfaces(t *testing.T) {
	users := &fakeUserRepo{users: []*types.User{{ID: 1, Username: "greta"}}}
	index := &fakeIndex{searchErr: errors.New("qdrant down")}

	svc := newSemanticFixture(t, &fakePostRepo{}, users, &fakeEmbedder{vec: []float32{0.1}}, index)
	_, err := svc.Search(context.Background(), "bottles", "greta")
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr, got %v", err)
	}
	if apiErr.Status != 502 || apiErr.Code != "retrieval_failed" {
		t.Fatalf("unexpected error: status=%d code=%s", apiErr.Status, apiErr.Code)
	}
}

func TestSemanticSearchEmptyMatchesShortCircuit(t *testing.T) {
	users := &fakeUserRepo{users: []*types.User{{ID: 1, Username: "greta"}}}
	posts := &fakePostRepo{getErr: errors.New("should not hydrate")}

	svc := newSemanticFixture(t, posts, users, &fakeEmbedder{vec: []float32{0.1}}, &fakeIndex{})
	results, err := svc.Search(context.Background(), "bottles", "greta")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %d", len(results))
	}
}
