package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
)

// CartCleaner は注文済み商品のカート行を消す。
// 失敗したらマーカーを残し、次回時刻をずらしてワーカーが再実行する。
type CartCleaner struct {
	carts       repo.CartRepository
	cleanups    repo.CartCleanupRepository
	clock       Clock
	backoff     time.Duration
	maxAttempts int
	logger      zerolog.Logger
}

// DI
func NewCartCleaner(
	carts repo.CartRepository,
	cleanups repo.CartCleanupRepository,
	clock Clock,
	backoff time.Duration,
	maxAttempts int,
	logger zerolog.Logger,
) *CartCleaner {
	return &CartCleaner{
		carts:       carts,
		cleanups:    cleanups,
		clock:       clock,
		backoff:     backoff,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// 最初の再実行時刻。リクエスト中のCleanと重ならないよう1回分ずらす
func (c *CartCleaner) FirstAttemptAt(now time.Time) time.Time {
	return now.Add(c.backoff)
}

// カート行の削除は何度やっても同じ結果になる
func (c *CartCleaner) Clean(ctx context.Context, task model.CartCleanupTask) error {
	log := loggerFrom(ctx, c.logger).With().
		Str("orderId", task.OrderID).
		Str("taskId", task.ID).
		Logger()

	if _, err := c.carts.DeleteByProductIDs(ctx, task.UserID, task.ProductIDs); err != nil {
		attempts := task.Attempts + 1
		if c.maxAttempts > 0 && attempts >= c.maxAttempts {
			log.Error().Err(err).Int("attempts", attempts).Msg("cart cleanup gave up")
			if delErr := c.cleanups.Delete(ctx, task.ID); delErr != nil {
				log.Error().Err(delErr).Msg("cart cleanup task delete failed")
			}
			return err
		}

		next := c.clock.Now().Add(c.backoff * time.Duration(attempts))
		log.Warn().Err(err).Int("attempts", attempts).Time("nextAttemptAt", next).Msg("cart cleanup failed, will retry")
		if markErr := c.cleanups.MarkFailed(ctx, task.ID, err.Error(), next); markErr != nil {
			log.Error().Err(markErr).Msg("cart cleanup task mark failed")
		}
		return err
	}

	if err := c.cleanups.Delete(ctx, task.ID); err != nil {
		// 残ってもカート削除は冪等なので再実行で消える
		log.Warn().Err(err).Msg("cart cleanup task delete failed")
	}
	return nil
}

// 期限が来たマーカーをまとめて処理する。処理件数を返す
func (c *CartCleaner) ProcessDue(ctx context.Context, batchSize int) (int, error) {
	tasks, err := c.cleanups.ListDue(ctx, c.clock.Now(), batchSize)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, t := range tasks {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if err := c.Clean(ctx, t); err == nil {
			done++
		}
	}
	return done, nil
}
