package app

import (
	"gorm.io/gorm"

	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
	"github.com/ecotrack/ecotrack-backend/internal/repos"
)

type Repos struct {
	User     repos.UserRepo
	Post     repos.PostRepo
	PostLike repos.PostLikeRepo
	PostSave repos.PostSaveRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:     repos.NewUserRepo(db, log),
		Post:     repos.NewPostRepo(db, log),
		PostLike: repos.NewPostLikeRepo(db, log),
		PostSave: repos.NewPostSaveRepo(db, log),
	}
}
