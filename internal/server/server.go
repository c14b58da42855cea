package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

type Params struct {
	fx.In

	Lc         fx.Lifecycle
	Shutdowner fx.Shutdowner
	Cfg        *config.Config
	Logger     zerolog.Logger
	UserRepo   repository.UserRepository
	Health     HealthChecker

	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Cart     *handler.CartHandler
	Orders   *handler.OrderHandler
}

type Server struct {
	cfg    *config.Config
	logger zerolog.Logger
	echo   *echo.Echo
}

// echoを組み立て、fxのライフサイクルに載せる
func New(p Params) *Server {
	s := &Server{
		cfg:    p.Cfg,
		logger: p.Logger,
		echo:   NewEcho(p.Cfg, p.Logger, p.UserRepo, Handlers{
			Auth:     p.Auth,
			Products: p.Products,
			Cart:     p.Cart,
			Orders:   p.Orders,
		}, p.Health),
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := s.Serve(); err != nil {
					s.logger.Error().Err(err).Msg("http server stopped unexpectedly")
					_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: s.stop,
	})
	return s
}

// ミドルウェアの順番: Recover → RequestID → ログ → レート制限 → タイムアウト
func NewEcho(cfg *config.Config, logger zerolog.Logger, userRepo repository.UserRepository, h Handlers, health HealthChecker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(logger)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.ContextLogger(logger))
	e.Use(middleware.AccessLog(logger))
	e.Use(echomw.RateLimiterWithConfig(rateLimiterConfig(cfg)))
	if cfg.HTTP.RequestTimeout > 0 {
		e.Use(echomw.ContextTimeout(cfg.HTTP.RequestTimeout))
	}

	RegisterRoutes(e, cfg.JWT.Secret, userRepo, h, health)
	return e
}

func rateLimiterConfig(cfg *config.Config) echomw.RateLimiterConfig {
	rl := cfg.HTTP.RateLimit
	return echomw.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return rl.RPS <= 0 || c.Path() == "/healthz"
		},
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(rl.RPS),
			Burst:     rl.Burst,
			ExpiresIn: rl.ExpiresIn,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "rate limiter identifier error")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	}
}

func (s *Server) Serve() error {
	hostPort := net.JoinHostPort("0.0.0.0", strconv.Itoa(s.cfg.HTTP.Port))
	s.logger.Info().Str("hostPort", hostPort).Msg("starting HTTP server")

	if err := s.echo.Start(hostPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(shutdownCtx)
}
