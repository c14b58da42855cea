package main

import (
	"context"

	"storefront/internal/config"
	"storefront/internal/handler"
	infraauth "storefront/internal/infra/auth"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/idgen"
	"storefront/internal/infra/logger"
	"storefront/internal/infra/messaging"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"
	"storefront/internal/worker"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectHandler(),
		fx.Provide(server.New),
		fx.Invoke(
			func(*server.Server) {},
			startCleanupWorker,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.Load,
		logger.New,
		newDB,
		newReviewStatsCache,
		newOrderPublisher,
		fx.Annotate(db.NewHealth, fx.As(new(server.HealthChecker))),
	)
}

// 接続とマイグレーション。終了時にクローズ
func newDB(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	gormDB, err := db.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return db.Close(gormDB)
		},
	})
	return gormDB, nil
}

// redis無効ならキャッシュなし
func newReviewStatsCache(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) repository.ReviewStatsCache {
	if !cfg.Redis.Enabled {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// 落ちていてもDBで集計できるので起動は止めない
			if err := rdb.Ping(ctx).Err(); err != nil {
				log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis ping failed")
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return rdb.Close()
		},
	})
	return cache.NewReviewStatsRedisCache(rdb, cfg.Redis.StatsTTL)
}

func newOrderPublisher(lc fx.Lifecycle, cfg *config.Config) usecase.OrderEventPublisher {
	if !cfg.Kafka.Enabled {
		return messaging.NopOrderPublisher{}
	}

	w := messaging.NewKafkaWriter(cfg.Kafka.BrokerList(), cfg.Kafka.OrderTopic)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return errors.Wrap(w.Close(), "kafka writer close")
		},
	})
	return messaging.NewKafkaOrderPublisher(w)
}

func injectRepo() fx.Option {
	return fx.Provide(
		infraRepo.NewUserGormRepository,
		infraRepo.NewAuditLogGormRepository,
		fx.Annotate(infraRepo.NewProductGormRepository, fx.As(new(repository.ProductRepository))),
		fx.Annotate(infraRepo.NewReviewGormRepository, fx.As(new(repository.ReviewRepository))),
		fx.Annotate(infraRepo.NewCartGormRepository, fx.As(new(repository.CartRepository))),
		fx.Annotate(infraRepo.NewOrderGormRepository, fx.As(new(repository.OrderRepository))),
		fx.Annotate(infraRepo.NewCartCleanupGormRepository, fx.As(new(repository.CartCleanupRepository))),
		fx.Annotate(infraRepo.NewTxManagerGorm, fx.As(new(repository.TransactionManager))),
	)
}

func injectService() fx.Option {
	return fx.Provide(
		fx.Annotate(idgen.NewUUIDGenerator, fx.As(new(usecase.IDGenerator))),
		fx.Annotate(idgen.NewRealClock, fx.As(new(usecase.Clock))),
		newDeliveryEstimator,
		newPasswordHasher,
		newPasswordVerifier,
		newTokenIssuer,
		newLimits,
	)
}

func newDeliveryEstimator(cfg *config.Config) usecase.DeliveryEstimator {
	return idgen.NewRandomDeliveryEstimator(cfg.Order.MinDeliveryDays, cfg.Order.MaxDeliveryDays)
}

func newPasswordHasher(cfg *config.Config) auth.PasswordHasher {
	return infraauth.NewBcryptPasswordHasher(cfg.JWT.BcryptCost)
}

func newPasswordVerifier(cfg *config.Config) auth.PasswordVerifier {
	return infraauth.NewBcryptPasswordHasher(cfg.JWT.BcryptCost)
}

func newTokenIssuer(cfg *config.Config) auth.AccessTokenIssuer {
	return infraauth.NewJWTIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL)
}

func newLimits(cfg *config.Config) usecase.Limits {
	return usecase.Limits{
		MaxQuantity: cfg.Order.MaxQuantity,
		MaxPageSize: cfg.HTTP.MaxPageSize,
	}
}

func injectUsecase() fx.Option {
	return fx.Provide(
		usecase.NewReviewAggregator,
		usecase.NewCatalogUsecase,
		usecase.NewReviewUsecase,
		usecase.NewCartUsecase,
		newCartCleaner,
		usecase.NewOrderUsecase,
		auth.NewRegisterUserUsecase,
		auth.NewLoginUsecase,
	)
}

func newCartCleaner(
	carts repository.CartRepository,
	cleanups repository.CartCleanupRepository,
	clock usecase.Clock,
	cfg *config.Config,
	log zerolog.Logger,
) *usecase.CartCleaner {
	return usecase.NewCartCleaner(carts, cleanups, clock, cfg.Cleanup.Backoff, cfg.Cleanup.MaxAttempts, log)
}

func injectHandler() fx.Option {
	return fx.Provide(
		handler.NewAuthHandler,
		handler.NewProductHandler,
		handler.NewCartHandler,
		handler.NewOrderHandler,
	)
}

// 残ったカート掃除を定期的に再実行する
func startCleanupWorker(lc fx.Lifecycle, cleaner *usecase.CartCleaner, cfg *config.Config, log zerolog.Logger) {
	w := worker.NewCartCleanupWorker(cleaner, cfg.Cleanup.Interval, cfg.Cleanup.BatchSize, log)
	lc.Append(fx.Hook{
		OnStart: w.Start,
		OnStop:  w.Stop,
	})
}
