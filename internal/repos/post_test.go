package repos

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
	"github.com/ecotrack/ecotrack-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := gdb.AutoMigrate(&types.User{}, &types.Post{}, &types.PostLike{}, &types.PostSave{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return gdb
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	return log
}

func seedPost(t *testing.T, repo PostRepo, authorID int64, content string, createdAt *time.Time) *types.Post {
	t.Helper()
	post := &types.Post{AuthorID: authorID, Content: content, CreatedAt: createdAt}
	created, err := repo.Create(context.Background(), nil, []*types.Post{post})
	if err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return created[0]
}

func TestSearchContentCaseInsensitiveSubstring(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepo(gdb, newTestLogger(t))

	seedPost(t, repo, 1, "Recycled my PLASTIC bottle today", nil)
	seedPost(t, repo, 1, "composting kitchen scraps", nil)
	seedPost(t, repo, 2, "new plastic-free grocery run", nil)

	results, err := repo.SearchContent(context.Background(), nil, "plastic")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}
}

func TestSearchContentTreatsWildcardsAsLiterals(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepo(gdb, newTestLogger(t))

	seedPost(t, repo, 1, "saved 100% of my food waste", nil)
	seedPost(t, repo, 1, "saved 100 grams of food waste", nil)

	results, err := repo.SearchContent(context.Background(), nil, "100%")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 match, got %d", len(results))
	}
	if results[0].Content != "saved 100% of my food waste" {
		t.Fatalf("unexpected match: %q", results[0].Content)
	}
}

func TestDeleteMissingPostReturnsNotFound(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepo(gdb, newTestLogger(t))

	if err := repo.Delete(context.Background(), nil, 12345); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByIDsEmptyInput(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepo(gdb, newTestLogger(t))

	results, err := repo.GetByIDs(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("get by ids: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestLikedAndSavedPostIDs(t *testing.T) {
	gdb := newTestDB(t)
	log := newTestLogger(t)
	postRepo := NewPostRepo(gdb, log)
	likeRepo := NewPostLikeRepo(gdb, log)
	saveRepo := NewPostSaveRepo(gdb, log)

	a := seedPost(t, postRepo, 1, "first", nil)
	b := seedPost(t, postRepo, 1, "second", nil)
	c := seedPost(t, postRepo, 1, "third", nil)

	if _, err := likeRepo.Create(context.Background(), nil, []*types.PostLike{{PostID: a.ID, UserID: 7}}); err != nil {
		t.Fatalf("create like: %v", err)
	}
	if _, err := saveRepo.Create(context.Background(), nil, []*types.PostSave{{PostID: b.ID, UserID: 7}, {PostID: c.ID, UserID: 8}}); err != nil {
		t.Fatalf("create save: %v", err)
	}

	liked, err := likeRepo.LikedPostIDs(context.Background(), nil, 7, []int64{a.ID, b.ID, c.ID})
	if err != nil {
		t.Fatalf("liked ids: %v", err)
	}
	if !liked[a.ID] || liked[b.ID] || liked[c.ID] {
		t.Fatalf("unexpected liked map: %v", liked)
	}

	saved, err := saveRepo.SavedPostIDs(context.Background(), nil, 7, []int64{a.ID, b.ID, c.ID})
	if err != nil {
		t.Fatalf("saved ids: %v", err)
	}
	if saved[a.ID] || !saved[b.ID] || saved[c.ID] {
		t.Fatalf("unexpected saved map: %v", saved)
	}
}

func TestUserGetByUsername(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewUserRepo(gdb, newTestLogger(t))

	if _, err := repo.Create(context.Background(), nil, []*types.User{{Username: "greta"}}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	user, err := repo.GetByUsername(context.Background(), nil, "greta")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if user.Username != "greta" {
		t.Fatalf("expected greta, got %q", user.Username)
	}

	if _, err := repo.GetByUsername(context.Background(), nil, "nobody"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
