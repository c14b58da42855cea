package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartRepository interface {
	// 追加日時の新しい順
	ListByUser(ctx context.Context, userID string, page Page) ([]model.CartLine, int64, error)
	ListAllByUser(ctx context.Context, userID string) ([]model.CartLine, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Exists(ctx context.Context, userID string, productID int64) (bool, error)
	// 同じ(user, product)が既にあればErrDuplicate
	Insert(ctx context.Context, line model.CartLine) error
	// 削除件数を返す
	Delete(ctx context.Context, userID string, productID int64) (int64, error)
	DeleteByProductIDs(ctx context.Context, userID string, productIDs []int64) (int64, error)
}
