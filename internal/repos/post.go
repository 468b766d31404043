package repos

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
	"github.com/ecotrack/ecotrack-backend/internal/types"
)

type PostRepo interface {
	Create(ctx context.Context, tx *gorm.DB, posts []*types.Post) ([]*types.Post, error)
	Update(ctx context.Context, tx *gorm.DB, post *types.Post) (*types.Post, error)
	Delete(ctx context.Context, tx *gorm.DB, postID int64) error
	GetByID(ctx context.Context, tx *gorm.DB, postID int64) (*types.Post, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, postIDs []int64) ([]*types.Post, error)
	SearchContent(ctx context.Context, tx *gorm.DB, term string) ([]*types.Post, error)
	Recent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Post, error)
}

type postRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostRepo(db *gorm.DB, baseLog *logger.Logger) PostRepo {
	repoLog := baseLog.With("repo", "PostRepo")
	return &postRepo{db: db, log: repoLog}
}

func (pr *postRepo) Create(ctx context.Context, tx *gorm.DB, posts []*types.Post) ([]*types.Post, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(posts) == 0 {
		return []*types.Post{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&posts).Error; err != nil {
		return nil, err
	}

	return posts, nil
}

func (pr *postRepo) Update(ctx context.Context, tx *gorm.DB, post *types.Post) (*types.Post, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).Save(post).Error; err != nil {
		return nil, err
	}

	return post, nil
}

func (pr *postRepo) Delete(ctx context.Context, tx *gorm.DB, postID int64) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	result := transaction.WithContext(ctx).
		Where("id = ?", postID).
		Delete(&types.Post{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (pr *postRepo) GetByID(ctx context.Context, tx *gorm.DB, postID int64) (*types.Post, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Post
	if err := transaction.WithContext(ctx).
		Where("id = ?", postID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &result, nil
}

func (pr *postRepo) GetByIDs(ctx context.Context, tx *gorm.DB, postIDs []int64) ([]*types.Post, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Post

	if len(postIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", postIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

// SearchContent matches posts whose content contains term, case
// insensitively. LIKE metacharacters in the term are treated as
// literals.
func (pr *postRepo) SearchContent(ctx context.Context, tx *gorm.DB, term string) ([]*types.Post, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Post

	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	if err := transaction.WithContext(ctx).
		Where("LOWER(content) LIKE ? ESCAPE '\\'", pattern).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (pr *postRepo) Recent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Post, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Post

	if err := transaction.WithContext(ctx).
		Order("created_at DESC NULLS LAST").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
