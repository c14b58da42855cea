package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// カート行を新しい順で一覧取得
func (r *CartGormRepository) ListByUser(ctx context.Context, userID string, page repo.Page) ([]model.CartLine, int64, error) {
	var lines []model.CartLine
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.CartLine{}).Where("user_id = ?", userID)
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count cart lines")
	}

	if err := tx.
		Order("added_at desc").
		Order("product_id asc").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&lines).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list cart lines")
	}
	return lines, total, nil
}

func (r *CartGormRepository) ListAllByUser(ctx context.Context, userID string) ([]model.CartLine, error) {
	var lines []model.CartLine
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at asc").
		Find(&lines).Error; err != nil {
		return nil, errors.Wrap(err, "list all cart lines")
	}
	return lines, nil
}

func (r *CartGormRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("user_id = ?", userID).
		Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "count cart lines")
	}
	return n, nil
}

func (r *CartGormRepository) Exists(ctx context.Context, userID string, productID int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Limit(1).
		Count(&n).Error; err != nil {
		return false, errors.Wrap(err, "cart line exists")
	}
	return n > 0, nil
}

// idx_cart_user_productに当たったらErrDuplicate
func (r *CartGormRepository) Insert(ctx context.Context, line model.CartLine) error {
	res := r.db.WithContext(ctx).Create(&line)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return repo.ErrDuplicate
		}
		return errors.Wrap(res.Error, "insert cart line")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotPersisted
	}
	return nil
}

// 本人の行だけ消す
func (r *CartGormRepository) Delete(ctx context.Context, userID string, productID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.CartLine{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "delete cart line")
	}
	return res.RowsAffected, nil
}

// 無い行は無視（何度呼んでもよい）
func (r *CartGormRepository) DeleteByProductIDs(ctx context.Context, userID string, productIDs []int64) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Delete(&model.CartLine{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "delete cart lines")
	}
	return res.RowsAffected, nil
}
