package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type CartCleanupGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartCleanupGormRepository(db *gorm.DB) *CartCleanupGormRepository {
	return &CartCleanupGormRepository{db: db}
}

func (r *CartCleanupGormRepository) Create(ctx context.Context, task model.CartCleanupTask) error {
	if err := r.db.WithContext(ctx).Create(&task).Error; err != nil {
		return errors.Wrap(err, "create cart cleanup task")
	}
	return nil
}

// 期限が来たものを古い順に
func (r *CartCleanupGormRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.CartCleanupTask, error) {
	var tasks []model.CartCleanupTask
	if err := r.db.WithContext(ctx).
		Where("next_attempt_at <= ?", now).
		Order("next_attempt_at asc").
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, errors.Wrap(err, "list due cart cleanup tasks")
	}
	return tasks, nil
}

func (r *CartCleanupGormRepository) Delete(ctx context.Context, taskID string) error {
	res := r.db.WithContext(ctx).Where("id = ?", taskID).Delete(&model.CartCleanupTask{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete cart cleanup task")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// attemptsを+1して次回時刻をずらす
func (r *CartCleanupGormRepository) MarkFailed(ctx context.Context, taskID string, lastError string, nextAttemptAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartCleanupTask{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"attempts":        gorm.Expr("attempts + ?", 1),
			"last_error":      lastError,
			"next_attempt_at": nextAttemptAt,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "mark cart cleanup task failed")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
