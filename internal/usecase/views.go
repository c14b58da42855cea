package usecase

import (
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 一覧レスポンスの共通形
type ListResult[T any] struct {
	Data         []T   `json:"data"`
	ResultsCount int64 `json:"resultsCount"`
}

type ProductListItem struct {
	ProductID     int64          `json:"productId"`
	Name          string         `json:"name"`
	Price         float64        `json:"price"`
	Category      model.Category `json:"category"`
	Image         []byte         `json:"image,omitempty"`
	ReviewsCount  int64          `json:"reviewsCount"`
	AverageRating float64        `json:"rating"`
}

type AuthorView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ReviewView struct {
	ID          string     `json:"id"`
	Rating      int        `json:"rating"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	Author      AuthorView `json:"author"`
}

type ProductDetail struct {
	ProductID     int64          `json:"productId"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Price         float64        `json:"price"`
	Category      model.Category `json:"category"`
	Image         []byte         `json:"image,omitempty"`
	Author        AuthorView     `json:"author"`
	Reviews       []ReviewView   `json:"reviews"`
	ReviewsCount  int64          `json:"reviewsCount"`
	AverageRating float64        `json:"rating"`
	InCart        bool           `json:"inCart"`
}

type CartLineView struct {
	ProductID int64          `json:"productId"`
	Name      string         `json:"name"`
	Price     float64        `json:"price"`
	Image     []byte         `json:"image,omitempty"`
	Category  model.Category `json:"category"`
	Quantity  int            `json:"quantity"`
	AddedDate time.Time      `json:"addedDate"`
}

// 注文に含まれる商品（現在のカタログの値）
type OrderProductView struct {
	ProductID int64          `json:"productId"`
	Name      string         `json:"name"`
	Price     float64        `json:"price"`
	Image     []byte         `json:"image,omitempty"`
	Category  model.Category `json:"category"`
	Quantity  int            `json:"quantity"`
}

type OrderView struct {
	OrderID       string             `json:"orderId"`
	OrderDate     time.Time          `json:"orderDate"`
	DeliveryDate  time.Time          `json:"deliveryDate"`
	Status        model.OrderStatus  `json:"status"`
	TotalPrice    float64            `json:"totalPrice"`
	ProductsCount int                `json:"productsCount"`
	Products      []OrderProductView `json:"products"`
}

func toProductListItem(p model.Product, s model.ReviewStats) ProductListItem {
	return ProductListItem{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Price:         p.Price,
		Category:      p.Category,
		Image:         p.Image,
		ReviewsCount:  s.Count,
		AverageRating: s.Average,
	}
}

func toCartLineView(l model.CartLine) CartLineView {
	return CartLineView{
		ProductID: l.ProductID,
		Name:      l.Product.Name,
		Price:     l.Product.Price,
		Image:     l.Product.Image,
		Category:  l.Product.Category,
		Quantity:  l.Quantity,
		AddedDate: l.AddedAt,
	}
}

// ページ指定の検証
// Index*Sizeが溢れない範囲
const maxPageIndex = 1_000_000

func validatePage(p repo.Page, maxSize int) error {
	if p.Index < 0 || p.Index > maxPageIndex {
		return invalidInput("pageIndex must be between 0 and %d", maxPageIndex)
	}
	if p.Size <= 0 || p.Size > maxSize {
		return invalidInput("pageSize must be between 1 and %d", maxSize)
	}
	return nil
}
