package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderLineRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// 商品の存在と数量の範囲はusecaseで見る
type OrderCreateRequest struct {
	Products []OrderLineRequest `json:"products"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, secret string, userRepo repository.UserRepository) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(secret))
	g.Use(middleware.IdentityGuard(userRepo))

	g.GET("", h.list)
	g.GET("/:orderId", h.detail)
	g.POST("", h.create)
	g.POST("/cart", h.createFromCart)
	g.DELETE("/:orderId", h.cancel)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req OrderCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	lines := make([]usecase.OrderLineInput, 0, len(req.Products))
	for _, p := range req.Products {
		lines = append(lines, usecase.OrderLineInput{ProductID: p.ProductID, Quantity: p.Quantity})
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), userID, lines)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, DataResponse[usecase.OrderView]{Data: out})
}

func (h *OrderHandler) createFromCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.CreateOrderFromCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, DataResponse[usecase.OrderView]{Data: out})
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	f, err := parseListFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	out, err := h.uc.ListOrders(c.Request().Context(), userID, f.page())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.GetOrderDetail(c.Request().Context(), userID, c.Param("orderId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, DataResponse[usecase.OrderView]{Data: out})
}

func (h *OrderHandler) cancel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.CancelOrder(c.Request().Context(), userID, c.Param("orderId")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, DataResponse[bool]{Data: true})
}
