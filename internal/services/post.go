package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/datatypes"

	"github.com/ecotrack/ecotrack-backend/internal/platform/apierr"
	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
	"github.com/ecotrack/ecotrack-backend/internal/platform/openai"
	"github.com/ecotrack/ecotrack-backend/internal/platform/vector"
	"github.com/ecotrack/ecotrack-backend/internal/repos"
	"github.com/ecotrack/ecotrack-backend/internal/types"
)

// indexBudget bounds the detached embed+upsert that follows a durable
// post write.
const indexBudget = 30 * time.Second

type PostInput struct {
	AuthorID int64          `json:"author_id"`
	Content  string         `json:"content"`
	PhotoURL string         `json:"photo_url"`
	Tags     datatypes.JSON `json:"tags"`
}

type PostService interface {
	Create(ctx context.Context, input PostInput) (*types.Post, error)
	Update(ctx context.Context, postID int64, input PostInput) (*types.Post, error)
	Delete(ctx context.Context, postID int64) error
	GetByID(ctx context.Context, postID int64) (*types.Post, error)
	Recent(ctx context.Context, limit int) ([]*types.Post, error)
}

type postService struct {
	posts    repos.PostRepo
	users    repos.UserRepo
	embedder openai.Client
	index    vector.Index
	log      *logger.Logger
}

func NewPostService(
	posts repos.PostRepo,
	users repos.UserRepo,
	embedder openai.Client,
	index vector.Index,
	baseLog *logger.Logger,
) PostService {
	return &postService{
		posts:    posts,
		users:    users,
		embedder: embedder,
		index:    index,
		log:      baseLog.With("service", "PostService"),
	}
}

// Create persists the post, then hands its content to the vector index in a
// detached goroutine. The write is durable once this returns; indexing
// failures are logged and the vector is simply absent until the next edit.
func (s *postService) Create(ctx context.Context, input PostInput) (*types.Post, error) {
	if input.Content == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_post", errors.New("content must not be blank"))
	}
	if _, err := s.users.GetByID(ctx, nil, input.AuthorID); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, apierr.New(http.StatusNotFound, "user_not_found", err)
		}
		return nil, apierr.New(http.StatusInternalServerError, "post_write_failed", err)
	}

	now := time.Now().UTC()
	post := &types.Post{
		AuthorID:  input.AuthorID,
		Content:   input.Content,
		PhotoURL:  input.PhotoURL,
		Tags:      input.Tags,
		CreatedAt: &now,
	}

	created, err := s.posts.Create(ctx, nil, []*types.Post{post})
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "post_write_failed", err)
	}
	post = created[0]

	s.indexAsync(post.ID, post.Content)

	return post, nil
}

func (s *postService) Update(ctx context.Context, postID int64, input PostInput) (*types.Post, error) {
	if input.Content == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_post", errors.New("content must not be blank"))
	}

	post, err := s.posts.GetByID(ctx, nil, postID)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, apierr.New(http.StatusNotFound, "post_not_found", err)
		}
		return nil, apierr.New(http.StatusInternalServerError, "post_write_failed", err)
	}

	contentChanged := post.Content != input.Content
	post.Content = input.Content
	post.PhotoURL = input.PhotoURL
	if input.Tags != nil {
		post.Tags = input.Tags
	}

	if _, err := s.posts.Update(ctx, nil, post); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "post_write_failed", err)
	}

	if contentChanged {
		s.indexAsync(post.ID, post.Content)
	}

	return post, nil
}

// Delete drops the row, then removes the vector best effort. A failed
// vector delete leaves a stale id in the index; semantic hydration drops
// those silently.
func (s *postService) Delete(ctx context.Context, postID int64) error {
	if err := s.posts.Delete(ctx, nil, postID); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return apierr.New(http.StatusNotFound, "post_not_found", err)
		}
		return apierr.New(http.StatusInternalServerError, "post_write_failed", err)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), indexBudget)
		defer cancel()
		if err := s.index.Delete(ctx, []int64{postID}); err != nil {
			s.log.Error("vector delete failed", "post_id", postID, "error", err)
		}
	}()

	return nil
}

func (s *postService) GetByID(ctx context.Context, postID int64) (*types.Post, error) {
	post, err := s.posts.GetByID(ctx, nil, postID)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, apierr.New(http.StatusNotFound, "post_not_found", err)
		}
		return nil, apierr.New(http.StatusInternalServerError, "post_read_failed", err)
	}
	return post, nil
}

func (s *postService) Recent(ctx context.Context, limit int) ([]*types.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.posts.Recent(ctx, nil, limit)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "post_read_failed", err)
	}
	return rows, nil
}

func (s *postService) indexAsync(postID int64, content string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), indexBudget)
		defer cancel()

		vec, err := s.embedder.EmbedOne(ctx, content)
		if err != nil {
			s.log.Error("post embedding failed", "post_id", postID, "error", err)
			return
		}
		if err := s.index.Upsert(ctx, postID, vec); err != nil {
			s.log.Error("vector upsert failed", "post_id", postID, "error", err)
		}
	}()
}
