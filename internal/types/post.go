package types

import (
	"time"

	"gorm.io/datatypes"
)

// Post.CreatedAt is a pointer on purpose: rows imported from the legacy
// feed can carry no timestamp, and retrieval ordering has to treat those
// as "oldest".
type Post struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID     int64          `gorm:"not null;index;column:author_id" json:"author_id"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	PhotoURL     string         `gorm:"column:photo_url" json:"photo_url"`
	LikeCount    int64          `gorm:"not null;default:0;column:like_count" json:"like_count"`
	CommentCount int64          `gorm:"not null;default:0;column:comment_count" json:"comment_count"`
	Tags         datatypes.JSON `gorm:"type:jsonb" json:"tags"`
	CreatedAt    *time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Post) TableName() string { return "post" }

type PostLike struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    int64     `gorm:"not null;uniqueIndex:idx_post_like_post_user;column:post_id" json:"post_id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_post_like_post_user;column:user_id" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (PostLike) TableName() string { return "post_like" }

type PostSave struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    int64     `gorm:"not null;uniqueIndex:idx_post_save_post_user;column:post_id" json:"post_id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_post_save_post_user;column:user_id" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (PostSave) TableName() string { return "post_save" }
