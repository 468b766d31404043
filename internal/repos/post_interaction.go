package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
	"github.com/ecotrack/ecotrack-backend/internal/types"
)

type PostLikeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, likes []*types.PostLike) ([]*types.PostLike, error)
	LikedPostIDs(ctx context.Context, tx *gorm.DB, userID int64, postIDs []int64) (map[int64]bool, error)
}

type postLikeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostLikeRepo(db *gorm.DB, baseLog *logger.Logger) PostLikeRepo {
	repoLog := baseLog.With("repo", "PostLikeRepo")
	return &postLikeRepo{db: db, log: repoLog}
}

func (pl *postLikeRepo) Create(ctx context.Context, tx *gorm.DB, likes []*types.PostLike) ([]*types.PostLike, error) {
	transaction := tx
	if transaction == nil {
		transaction = pl.db
	}

	if len(likes) == 0 {
		return []*types.PostLike{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&likes).Error; err != nil {
		return nil, err
	}

	return likes, nil
}

func (pl *postLikeRepo) LikedPostIDs(ctx context.Context, tx *gorm.DB, userID int64, postIDs []int64) (map[int64]bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = pl.db
	}

	liked := make(map[int64]bool, len(postIDs))
	if len(postIDs) == 0 {
		return liked, nil
	}

	var ids []int64
	if err := transaction.WithContext(ctx).
		Model(&types.PostLike{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error; err != nil {
		return nil, err
	}

	for _, id := range ids {
		liked[id] = true
	}

	return liked, nil
}

type PostSaveRepo interface {
	Create(ctx context.Context, tx *gorm.DB, saves []*types.PostSave) ([]*types.PostSave, error)
	SavedPostIDs(ctx context.Context, tx *gorm.DB, userID int64, postIDs []int64) (map[int64]bool, error)
}

type postSaveRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostSaveRepo(db *gorm.DB, baseLog *logger.Logger) PostSaveRepo {
	repoLog := baseLog.With("repo", "PostSaveRepo")
	return &postSaveRepo{db: db, log: repoLog}
}

func (ps *postSaveRepo) Create(ctx context.Context, tx *gorm.DB, saves []*types.PostSave) ([]*types.PostSave, error) {
	transaction := tx
	if transaction == nil {
		transaction = ps.db
	}

	if len(saves) == 0 {
		return []*types.PostSave{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&saves).Error; err != nil {
		return nil, err
	}

	return saves, nil
}

func (ps *postSaveRepo) SavedPostIDs(ctx context.Context, tx *gorm.DB, userID int64, postIDs []int64) (map[int64]bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ps.db
	}

	saved := make(map[int64]bool, len(postIDs))
	if len(postIDs) == 0 {
		return saved, nil
	}

	var ids []int64
	if err := transaction.WithContext(ctx).
		Model(&types.PostSave{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error; err != nil {
		return nil, err
	}

	for _, id := range ids {
		saved[id] = true
	}

	return saved, nil
}
