package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ecotrack/ecotrack-backend/internal/platform/envutil"
	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
	"github.com/ecotrack/ecotrack-backend/internal/types"
)

type PostgresService struct {
	DB  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	host := envutil.String("POSTGRES_HOST", "localhost")
	port := envutil.String("POSTGRES_PORT", "5432")
	user := envutil.String("POSTGRES_USER", "postgres")
	password := envutil.String("POSTGRES_PASSWORD", "")
	name := envutil.String("POSTGRES_NAME", "ecotrack")
	sslmode := envutil.String("POSTGRES_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, name, sslmode,
	)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	log.Info("connected to postgres", "host", host, "database", name)
	return &PostgresService{DB: gdb, log: log}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	return s.DB.AutoMigrate(
		&types.User{},
		&types.Post{},
		&types.PostLike{},
		&types.PostSave{},
	)
}

func (s *PostgresService) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
