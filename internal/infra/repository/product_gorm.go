package repository

import (
	"context"
	"fmt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

var productSortColumns = map[repo.ProductSortField]string{
	repo.ProductSortByProductID: "product_id",
	repo.ProductSortByPrice:     "price",
	repo.ProductSortByName:      "name",
}

// カテゴリ/価格帯/ソート/ページング付きで返す。
func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{})

	if q.Category != nil {
		tx = tx.Where("category = ?", *q.Category)
	}
	//価格帯
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	//sort。同値はproduct_id昇順
	col, ok := productSortColumns[q.SortField]
	if !ok {
		col = "product_id"
	}
	dir := "asc"
	if q.SortOrder == repo.SortDesc {
		dir = "desc"
	}
	tx = tx.Order(fmt.Sprintf("%s %s", col, dir))
	if col != "product_id" {
		tx = tx.Order("product_id asc")
	}

	if err := tx.Offset(q.Page.Offset()).Limit(q.Page.Size).Find(&products).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list products")
	}

	return products, total, nil
}

func (r *ProductGormRepository) FindByProductID(ctx context.Context, productID int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, errors.Wrap(err, "find product")
	}
	return p, nil
}

func (r *ProductGormRepository) FindByProductIDs(ctx context.Context, productIDs []int64) ([]model.Product, error) {
	if len(productIDs) == 0 {
		return []model.Product{}, nil
	}
	var products []model.Product
	if err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "find products by ids")
	}
	return products, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	res := r.db.WithContext(ctx).Create(&p)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return model.Product{}, repo.ErrDuplicate
		}
		return model.Product{}, errors.Wrap(res.Error, "create product")
	}
	if res.RowsAffected == 0 {
		return model.Product{}, repo.ErrNotPersisted
	}
	return p, nil
}

// sequencesを1文で進める。初回は既存の最大値+1から始まる
const nextProductIDSQL = `
INSERT INTO sequences (name, value)
VALUES (?, (SELECT COALESCE(MAX(product_id), 0) FROM products) + 1)
ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
RETURNING value`

func (r *ProductGormRepository) NextProductID(ctx context.Context) (int64, error) {
	var next int64
	if err := r.db.WithContext(ctx).
		Raw(nextProductIDSQL, model.SequenceProducts).
		Scan(&next).Error; err != nil {
		return 0, errors.Wrap(err, "next product id")
	}
	return next, nil
}
