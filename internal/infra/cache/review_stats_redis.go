package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"storefront/internal/domain/model"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const reviewStatsKeyPrefix = "review-stats:"

// 商品ごとのレビュー集計をTTL付きで持つ
type ReviewStatsRedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// DI
func NewReviewStatsRedisCache(rdb *redis.Client, ttl time.Duration) *ReviewStatsRedisCache {
	return &ReviewStatsRedisCache{rdb: rdb, ttl: ttl}
}

func reviewStatsKey(productID int64) string {
	return reviewStatsKeyPrefix + strconv.FormatInt(productID, 10)
}

func (c *ReviewStatsRedisCache) GetMany(ctx context.Context, productIDs []int64) (map[int64]model.ReviewStats, error) {
	out := make(map[int64]model.ReviewStats, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, reviewStatsKey(id))
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis mget")
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var stats model.ReviewStats
		// 壊れた値はミス扱い
		if err := json.Unmarshal([]byte(s), &stats); err != nil {
			continue
		}
		stats.ProductID = productIDs[i]
		out[productIDs[i]] = stats
	}
	return out, nil
}

func (c *ReviewStatsRedisCache) SetMany(ctx context.Context, stats []model.ReviewStats) error {
	if len(stats) == 0 {
		return nil
	}
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, s := range stats {
			b, err := json.Marshal(s)
			if err != nil {
				return err
			}
			pipe.Set(ctx, reviewStatsKey(s.ProductID), b, c.ttl)
		}
		return nil
	})
	return errors.Wrap(err, "redis set review stats")
}

func (c *ReviewStatsRedisCache) Invalidate(ctx context.Context, productID int64) error {
	return errors.Wrap(c.rdb.Del(ctx, reviewStatsKey(productID)).Err(), "redis del review stats")
}
