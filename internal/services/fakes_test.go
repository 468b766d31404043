package services

import (
	"context"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/ecotrack/ecotrack-backend/internal/platform/kgraph"
	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
	"github.com/ecotrack/ecotrack-backend/internal/platform/vector"
	"github.com/ecotrack/ecotrack-backend/internal/repos"
	"github.com/ecotrack/ecotrack-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	return log
}

type fakePostRepo struct {
	posts     []*types.Post
	nextID    int64
	searchErr error
	getErr    error
}

func (f *fakePostRepo) Create(ctx context.Context, tx *gorm.DB, posts []*types.Post) ([]*types.Post, error) {
	for _, p := range posts {
		f.nextID++
		p.ID = f.nextID
		f.posts = append(f.posts, p)
	}
	return posts, nil
}

func (f *fakePostRepo) Update(ctx context.Context, tx *gorm.DB, post *types.Post) (*types.Post, error) {
	for i, p := range f.posts {
		if p.ID == post.ID {
			f.posts[i] = post
			return post, nil
		}
	}
	return nil, repos.ErrNotFound
}

func (f *fakePostRepo) Delete(ctx context.Context, tx *gorm.DB, postID int64) error {
	for i, p := range f.posts {
		if p.ID == postID {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			return nil
		}
	}
	return repos.ErrNotFound
}

func (f *fakePostRepo) GetByID(ctx context.Context, tx *gorm.DB, postID int64) (*types.Post, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, p := range f.posts {
		if p.ID == postID {
			return p, nil
		}
	}
	return nil, repos.ErrNotFound
}

func (f *fakePostRepo) GetByIDs(ctx context.Context, tx *gorm.DB, postIDs []int64) ([]*types.Post, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	var out []*types.Post
	for _, id := range postIDs {
		for _, p := range f.posts {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakePostRepo) SearchContent(ctx context.Context, tx *gorm.DB, term string) ([]*types.Post, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []*types.Post
	for _, p := range f.posts {
		if strings.Contains(strings.ToLower(p.Content), strings.ToLower(term)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePostRepo) Recent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Post, error) {
	if limit > len(f.posts) {
		limit = len(f.posts)
	}
	return f.posts[:limit], nil
}

type fakeUserRepo struct {
	users []*types.User
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	f.users = append(f.users, users...)
	return users, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, userID int64) (*types.User, error) {
	for _, u := range f.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, repos.ErrNotFound
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repos.ErrNotFound
}

type fakePostLikeRepo struct {
	likedBy map[int64][]int64
}

func (f *fakePostLikeRepo) Create(ctx context.Context, tx *gorm.DB, likes []*types.PostLike) ([]*types.PostLike, error) {
	if f.likedBy == nil {
		f.likedBy = make(map[int64][]int64)
	}
	for _, l := range likes {
		f.likedBy[l.UserID] = append(f.likedBy[l.UserID], l.PostID)
	}
	return likes, nil
}

func (f *fakePostLikeRepo) LikedPostIDs(ctx context.Context, tx *gorm.DB, userID int64, postIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	for _, id := range f.likedBy[userID] {
		out[id] = true
	}
	return out, nil
}

type fakePostSaveRepo struct {
	savedBy map[int64][]int64
}

func (f *fakePostSaveRepo) Create(ctx context.Context, tx *gorm.DB, saves []*types.PostSave) ([]*types.PostSave, error) {
	if f.savedBy == nil {
		f.savedBy = make(map[int64][]int64)
	}
	for _, s := range saves {
		f.savedBy[s.UserID] = append(f.savedBy[s.UserID], s.PostID)
	}
	return saves, nil
}

func (f *fakePostSaveRepo) SavedPostIDs(ctx context.Context, tx *gorm.DB, userID int64, postIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	for _, id := range f.savedBy[userID] {
		out[id] = true
	}
	return out, nil
}

type fakeGraph struct {
	entity       *kgraph.Entity
	resolveErr   error
	resolveQuery string
	labels       []string
	expandErr    error
	expandCall   int
}

func (f *fakeGraph) Resolve(ctx context.Context, query, language string) (*kgraph.Entity, error) {
	f.resolveQuery = query
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.entity, nil
}

func (f *fakeGraph) Expand(ctx context.Context, entityID, language string) ([]string, error) {
	f.expandCall++
	if f.expandErr != nil {
		return nil, f.expandErr
	}
	return f.labels, nil
}

type fakeCache struct {
	entries map[string][]string
	puts    int
}

func (f *fakeCache) Get(ctx context.Context, entityID, language string) ([]string, bool) {
	labels, ok := f.entries[entityID+"/"+language]
	return labels, ok
}

func (f *fakeCache) Put(ctx context.Context, entityID, language string, labels []string) {
	if f.entries == nil {
		f.entries = make(map[string][]string)
	}
	f.entries[entityID+"/"+language] = labels
	f.puts++
}

func (f *fakeCache) Close() error { return nil }

type fakeIndex struct {
	matches   []vector.Match
	searchErr error
	upserts   chan int64
	deletes   chan int64
}

func (f *fakeIndex) EnsureCollection(ctx context.Context) error { return nil }

func (f *fakeIndex) Upsert(ctx context.Context, postID int64, values []float32) error {
	if f.upserts != nil {
		f.upserts <- postID
	}
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, query []float32, topK int) ([]vector.Match, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.matches, nil
}

func (f *fakeIndex) Delete(ctx context.Context, postIDs []int64) error {
	if f.deletes != nil {
		for _, id := range postIDs {
			f.deletes <- id
		}
	}
	return nil
}

type fakeEmbedder struct {
	vec      []float32
	embedErr error
}

func (f *fakeEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = f.vec
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, input string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return f.vec, nil
}
