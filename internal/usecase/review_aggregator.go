package usecase

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
)

// ReviewAggregator はレビュー件数と平均評価を計算する。
// キャッシュがあれば先に見て、無い分だけDBでまとめて集計する。
type ReviewAggregator struct {
	reviews repo.ReviewRepository
	cache   repo.ReviewStatsCache
	logger  zerolog.Logger
}

// DI。cacheはnilでもよい
func NewReviewAggregator(reviews repo.ReviewRepository, cache repo.ReviewStatsCache, logger zerolog.Logger) *ReviewAggregator {
	return &ReviewAggregator{reviews: reviews, cache: cache, logger: logger}
}

// レビューが無ければ0件・平均0
func (a *ReviewAggregator) AggregateForProduct(ctx context.Context, productID int64) (model.ReviewStats, error) {
	stats, err := a.AggregateForProducts(ctx, []int64{productID})
	if err != nil {
		return model.ReviewStats{}, err
	}
	return stats[productID], nil
}

// 渡した全IDがキーとして入る
func (a *ReviewAggregator) AggregateForProducts(ctx context.Context, productIDs []int64) (map[int64]model.ReviewStats, error) {
	out := make(map[int64]model.ReviewStats, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	missing := uniqueIDs(productIDs)
	if a.cache != nil {
		cached, err := a.cache.GetMany(ctx, missing)
		if err != nil {
			// キャッシュが落ちていてもDBで続ける
			loggerFrom(ctx, a.logger).Warn().Err(err).Msg("review stats cache read failed")
		}
		rest := missing[:0:0]
		for _, id := range missing {
			if s, ok := cached[id]; ok {
				out[id] = s
				continue
			}
			rest = append(rest, id)
		}
		missing = rest
	}
	if len(missing) == 0 {
		return out, nil
	}

	fromDB, err := a.reviews.StatsByProductIDs(ctx, missing)
	if err != nil {
		return nil, storageFailed(ctx, a.logger, "review.StatsByProductIDs", err)
	}

	fresh := make([]model.ReviewStats, 0, len(missing))
	for _, id := range missing {
		s, ok := fromDB[id]
		if !ok {
			s = model.ReviewStats{}
		}
		s.ProductID = id
		out[id] = s
		fresh = append(fresh, s)
	}

	if a.cache != nil {
		if err := a.cache.SetMany(ctx, fresh); err != nil {
			loggerFrom(ctx, a.logger).Warn().Err(err).Msg("review stats cache write failed")
		}
	}
	return out, nil
}

// キャッシュを捨てる。失敗はログのみ
func (a *ReviewAggregator) Invalidate(ctx context.Context, productID int64) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Invalidate(ctx, productID); err != nil {
		loggerFrom(ctx, a.logger).Warn().Err(err).Int64("productId", productID).Msg("review stats cache invalidate failed")
	}
}

// 表示するレビューから集計する
func statsFromReviews(productID int64, reviews []model.Review) model.ReviewStats {
	s := model.ReviewStats{ProductID: productID}
	if len(reviews) == 0 {
		return s
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	s.Count = int64(len(reviews))
	s.Average = float64(sum) / float64(len(reviews))
	return s
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
