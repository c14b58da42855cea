package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TEST_DATABASE_URL が無ければスキップ
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	for _, table := range []string{"cart_cleanup_tasks", "orders", "cart_lines", "reviews", "products", "sequences", "users", "audit_logs"} {
		require.NoError(t, gormDB.Exec("DELETE FROM "+table).Error)
	}
	return gormDB
}

func seedProduct(t *testing.T, r *ProductGormRepository, price float64, cat model.Category) model.Product {
	t.Helper()
	ctx := context.Background()
	id, err := r.NextProductID(ctx)
	require.NoError(t, err)
	p, err := r.Create(ctx, model.Product{
		ID:        uuid.NewString(),
		ProductID: id,
		Name:      "p",
		Price:     price,
		Category:  cat,
		AuthorID:  uuid.NewString(),
	})
	require.NoError(t, err)
	return p
}

func TestProductRepository_NextProductIDIsSequential(t *testing.T) {
	gormDB := openTestDB(t)
	r := NewProductGormRepository(gormDB)

	a := seedProduct(t, r, 10, model.CategoryMen)
	b := seedProduct(t, r, 20, model.CategoryWomen)
	assert.Equal(t, int64(1), a.ProductID)
	assert.Equal(t, int64(2), b.ProductID)
}

func TestProductRepository_ListFiltersAndSorts(t *testing.T) {
	gormDB := openTestDB(t)
	r := NewProductGormRepository(gormDB)
	ctx := context.Background()

	seedProduct(t, r, 30, model.CategoryMen)
	seedProduct(t, r, 10, model.CategoryWomen)
	seedProduct(t, r, 20, model.CategoryMen)

	men := model.CategoryMen
	items, total, err := r.List(ctx, repo.ProductListQuery{Page: repo.Page{Index: 0, Size: 10}, Category: &men})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ProductID)
	assert.Equal(t, int64(3), items[1].ProductID)

	minPrice := 15.0
	items, total, err = r.List(ctx, repo.ProductListQuery{
		Page:      repo.Page{Index: 0, Size: 1},
		MinPrice:  &minPrice,
		SortField: repo.ProductSortByPrice,
		SortOrder: repo.SortDesc,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 1)
	assert.Equal(t, 30.0, items[0].Price)
}

func TestCartRepository_UniquePerUserProduct(t *testing.T) {
	gormDB := openTestDB(t)
	r := NewCartGormRepository(gormDB)
	ctx := context.Background()

	line := model.CartLine{ID: uuid.NewString(), UserID: "u1", ProductID: 7, Quantity: 1, AddedAt: time.Now()}
	require.NoError(t, r.Insert(ctx, line))

	line.ID = uuid.NewString()
	assert.ErrorIs(t, r.Insert(ctx, line), repo.ErrDuplicate)

	n, err := r.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// 他人の行は消えない
	deleted, err := r.Delete(ctx, "u2", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	deleted, err = r.DeleteByProductIDs(ctx, "u1", []int64{7, 8})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestReviewRepository_StatsByProductIDs(t *testing.T) {
	gormDB := openTestDB(t)
	r := NewReviewGormRepository(gormDB)
	ctx := context.Background()

	for _, rating := range []int{4, 5} {
		require.NoError(t, r.Create(ctx, model.Review{ID: uuid.NewString(), ProductID: 1, UserID: "u", Rating: rating}))
	}
	require.NoError(t, r.Create(ctx, model.Review{ID: uuid.NewString(), ProductID: 2, UserID: "u", Rating: 1}))

	stats, err := r.StatsByProductIDs(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats[1].Count)
	assert.InDelta(t, 4.5, stats[1].Average, 1e-9)
	assert.Equal(t, int64(1), stats[2].Count)
	_, ok := stats[3]
	assert.False(t, ok)
}

func TestOrderRepository_ScopedToUser(t *testing.T) {
	gormDB := openTestDB(t)
	orders := NewOrderGormRepository(gormDB)
	ctx := context.Background()

	o := model.Order{
		ID:           uuid.NewString(),
		UserID:       "u1",
		Lines:        []model.OrderLine{{ProductID: 1, Quantity: 2}},
		OrderDate:    time.Now(),
		DeliveryDate: time.Now().Add(48 * time.Hour),
		Status:       model.OrderStatusNotShipped,
		Total:        39.98,
	}
	require.NoError(t, orders.Create(ctx, o))

	_, err := orders.FindByIDForUser(ctx, o.ID, "u2")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	got, err := orders.FindByIDForUser(ctx, o.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Lines[0].Quantity)

	n, err := orders.DeleteForUser(ctx, o.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	gormDB := openTestDB(t)
	tm := NewTxManagerGorm(gormDB)
	ctx := context.Background()

	orderID := uuid.NewString()
	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		require.NoError(t, r.Orders().Create(ctx, model.Order{
			ID: orderID, UserID: "u1", Lines: []model.OrderLine{{ProductID: 1, Quantity: 1}},
			OrderDate: time.Now(), DeliveryDate: time.Now(), Status: model.OrderStatusNotShipped,
		}))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	_, err = NewOrderGormRepository(gormDB).FindByIDForUser(ctx, orderID, "u1")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
