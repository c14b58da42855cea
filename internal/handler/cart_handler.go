package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// カートのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

// bodyは省略可。省略時は1個
type AddCartRequest struct {
	Quantity *int `json:"quantity"`
}

type cartCountResponse struct {
	Count int64 `json:"count"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, secret string, userRepo repository.UserRepository) {
	auth := []echo.MiddlewareFunc{middleware.AuthJWT(secret), middleware.IdentityGuard(userRepo)}

	e.GET("/products/cart", h.getCart, auth...)
	e.GET("/products/cart/count", h.count, auth...)
	e.POST("/product/:productId/cart", h.addToCart, auth...)
	e.DELETE("/product/:productId/cart", h.removeFromCart, auth...)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	f, err := parseListFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	out, err := h.uc.ListCart(c.Request().Context(), userID, f.page())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) count(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	n, err := h.uc.Count(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, DataResponse[cartCountResponse]{Data: cartCountResponse{Count: n}})
}

func (h *CartHandler) addToCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	productID, err := parseProductID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	quantity := 1
	if c.Request().ContentLength != 0 {
		var req AddCartRequest
		if err := bindAndValidate(c, &req); err != nil {
			return badRequest(c, err.Error())
		}
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
	}

	if _, err := h.uc.AddToCart(c.Request().Context(), userID, productID, quantity); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, DataResponse[bool]{Data: true})
}

func (h *CartHandler) removeFromCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	productID, err := parseProductID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.uc.RemoveFromCart(c.Request().Context(), userID, productID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, DataResponse[bool]{Data: true})
}
