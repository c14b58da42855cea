package db

import (
	"context"

	"storefront/internal/config"
	"storefront/internal/domain/model"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg *config.Config, logger zerolog.Logger) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(cfg.Postgres.ConnString()), &gorm.Config{
		Logger: newGormZerologLogger(logger, cfg.Env.Debug),
		// 一意制約違反を gorm.ErrDuplicatedKey にする
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "gorm.Open")
	}

	// 読み取りはレプリカへ
	if replicas := cfg.Postgres.ReplicaDSNs(); len(replicas) > 0 {
		dialectors := make([]gorm.Dialector, 0, len(replicas))
		for _, dsn := range replicas {
			dialectors = append(dialectors, postgres.Open(dsn))
		}
		if err := gormDB.Use(dbresolver.Register(dbresolver.Config{
			Replicas: dialectors,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, errors.Wrap(err, "dbresolver.Register")
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, errors.Wrap(err, "gormDB.DB")
	}
	if cfg.Postgres.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	}
	if cfg.Postgres.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	}
	if cfg.Postgres.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
	}

	return gormDB, nil
}

// テーブル作成
func Migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Sequence{},
		&model.Review{},
		&model.CartLine{},
		&model.Order{},
		&model.CartCleanupTask{},
		&model.AuditLog{},
	); err != nil {
		return errors.Wrap(err, "AutoMigrate")
	}
	return nil
}

// /healthz用
type Health struct {
	db *gorm.DB
}

func NewHealth(gormDB *gorm.DB) *Health {
	return &Health{db: gormDB}
}

func (h *Health) Ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return errors.Wrap(err, "gormDB.DB")
	}
	return errors.Wrap(sqlDB.PingContext(ctx), "ping")
}

func Close(gormDB *gorm.DB) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return errors.Wrap(err, "gormDB.DB")
	}
	return sqlDB.Close()
}
