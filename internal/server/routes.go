package server

import (
	"context"
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// DB疎通確認
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Cart     *handler.CartHandler
	Orders   *handler.OrderHandler
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func RegisterRoutes(e *echo.Echo, secret string, userRepo repository.UserRepository, h Handlers, health HealthChecker) {
	e.GET("/healthz", func(c echo.Context) error {
		if health != nil {
			if err := health.Ping(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
			}
		}
		return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
	})

	h.Auth.RegisterRoutes(e)
	h.Products.RegisterRoutes(e, secret, userRepo)
	h.Cart.RegisterRoutes(e, secret, userRepo)
	h.Orders.RegisterRoutes(e, secret, userRepo)
}
