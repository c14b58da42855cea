package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) error
	// 注文日の新しい順
	ListByUser(ctx context.Context, userID string, page Page) ([]model.Order, int64, error)
	FindByIDForUser(ctx context.Context, orderID string, userID string) (model.Order, error)
	// 削除件数を返す
	DeleteForUser(ctx context.Context, orderID string, userID string) (int64, error)
}

// 注文後のカート掃除の未完了マーカー
type CartCleanupRepository interface {
	Create(ctx context.Context, task model.CartCleanupTask) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.CartCleanupTask, error)
	Delete(ctx context.Context, taskID string) error
	MarkFailed(ctx context.Context, taskID string, lastError string, nextAttemptAt time.Time) error
}
