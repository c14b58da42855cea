package handler

import (
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 商品カタログとレビュー
type ProductHandler struct {
	catalog *usecase.CatalogUsecase
	reviews *usecase.ReviewUsecase
}

// DI
func NewProductHandler(catalog *usecase.CatalogUsecase, reviews *usecase.ReviewUsecase) *ProductHandler {
	return &ProductHandler{catalog: catalog, reviews: reviews}
}

type ProductCreateRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"required"`
	Image       []byte  `json:"image"`
}

// ratingの範囲はusecaseで見る
type ReviewCreateRequest struct {
	Rating      int    `json:"rating"`
	Title       string `json:"title" validate:"max=255"`
	Description string `json:"description"`
}

func (h *ProductHandler) RegisterRoutes(e *echo.Echo, secret string, userRepo repository.UserRepository) {
	required := []echo.MiddlewareFunc{middleware.AuthJWT(secret), middleware.IdentityGuard(userRepo)}

	e.GET("/products", h.list)
	e.GET("/products/category/:category", h.listByCategory)
	e.GET("/product/:productId", h.detail, middleware.OptionalAuthJWT(secret), middleware.IdentityGuard(userRepo))

	e.POST("/product", h.create, required...)
	e.POST("/product/:productId/reviews", h.createReview, required...)
}

func (h *ProductHandler) list(c echo.Context) error {
	f, err := parseListFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return h.listWith(c, f)
}

// /products/category/:categoryはパスのカテゴリを優先
func (h *ProductHandler) listByCategory(c echo.Context) error {
	f, err := parseListFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	f.Category = c.Param("category")
	return h.listWith(c, f)
}

func (h *ProductHandler) listWith(c echo.Context, f listFilter) error {
	out, err := h.catalog.ListProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:      f.page(),
		SortField: f.SortField,
		SortOrder: f.SortOrder,
		Category:  f.Category,
		MinPrice:  f.MinPrice,
		MaxPrice:  f.MaxPrice,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := parseProductID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	// 匿名なら空文字
	userID, _ := getUserIDFromContext(c)

	out, err := h.catalog.GetProductDetail(c.Request().Context(), id, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, DataResponse[usecase.ProductDetail]{Data: out})
}

func (h *ProductHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req ProductCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	out, err := h.catalog.CreateProduct(c.Request().Context(), userID, usecase.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, DataResponse[model.Product]{Data: out})
}

func (h *ProductHandler) createReview(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, err := parseProductID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req ReviewCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	out, err := h.reviews.CreateReview(c.Request().Context(), userID, id, usecase.CreateReviewInput{
		Rating:      req.Rating,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, DataResponse[model.Review]{Data: out})
}
