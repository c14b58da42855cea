package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type ProductSortField string

const (
	ProductSortByProductID ProductSortField = "productId"
	ProductSortByPrice     ProductSortField = "price"
	ProductSortByName      ProductSortField = "name"
)

// 一覧検索
type ProductListQuery struct {
	Page      Page
	Category  *model.Category
	MinPrice  *float64
	MaxPrice  *float64
	SortField ProductSortField
	SortOrder SortOrder
}

type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByProductID(ctx context.Context, productID int64) (model.Product, error)
	// 見つからないIDは結果に含まれない
	FindByProductIDs(ctx context.Context, productIDs []int64) ([]model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
	// 採番（原子的）
	NextProductID(ctx context.Context) (int64, error)
}
