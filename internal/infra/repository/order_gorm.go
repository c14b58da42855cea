package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) error {
	res := r.db.WithContext(ctx).Create(&order)
	if res.Error != nil {
		return errors.Wrap(res.Error, "create order")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotPersisted
	}
	return nil
}

func (r *OrderGormRepository) ListByUser(ctx context.Context, userID string, page repo.Page) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", userID)
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}

	if err := tx.
		Order("order_date desc").
		Order("id asc").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&orders).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list orders")
	}
	return orders, total, nil
}

// 他人の注文はErrNotFound
func (r *OrderGormRepository) FindByIDForUser(ctx context.Context, orderID string, userID string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, errors.Wrap(err, "find order")
	}
	return o, nil
}

func (r *OrderGormRepository) DeleteForUser(ctx context.Context, orderID string, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", orderID, userID).
		Delete(&model.Order{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "delete order")
	}
	return res.RowsAffected, nil
}
