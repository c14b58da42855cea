package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

// DI
func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

// ページ分の商品をまとめて集計
func (r *ReviewGormRepository) StatsByProductIDs(ctx context.Context, productIDs []int64) (map[int64]model.ReviewStats, error) {
	out := make(map[int64]model.ReviewStats, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var rows []model.ReviewStats
	if err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("product_id, COUNT(*) AS count, AVG(rating) AS average").
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "review stats")
	}

	for _, s := range rows {
		out[s.ProductID] = s
	}
	return out, nil
}

func (r *ReviewGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.Review, error) {
	var reviews []model.Review
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at desc").
		Find(&reviews).Error; err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	return reviews, nil
}

func (r *ReviewGormRepository) Create(ctx context.Context, review model.Review) error {
	res := r.db.WithContext(ctx).Create(&review)
	if res.Error != nil {
		return errors.Wrap(res.Error, "create review")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotPersisted
	}
	return nil
}

var _ repo.ReviewRepository = (*ReviewGormRepository)(nil)
