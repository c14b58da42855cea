package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type ReviewRepository interface {
	// レビューが無い商品は結果に含まれない
	StatsByProductIDs(ctx context.Context, productIDs []int64) (map[int64]model.ReviewStats, error)
	ListByProductID(ctx context.Context, productID int64) ([]model.Review, error)
	Create(ctx context.Context, r model.Review) error
}

// 集計結果のキャッシュ
type ReviewStatsCache interface {
	// 見つかったものだけ返す
	GetMany(ctx context.Context, productIDs []int64) (map[int64]model.ReviewStats, error)
	SetMany(ctx context.Context, stats []model.ReviewStats) error
	Invalidate(ctx context.Context, productID int64) error
}
