package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByProductID(ctx context.Context, productID int64) (model.Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindByProductIDs(ctx context.Context, productIDs []int64) ([]model.Product, error) {
	args := m.Called(ctx, productIDs)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) NextProductID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

type ReviewRepoMock struct{ mock.Mock }

func (m *ReviewRepoMock) StatsByProductIDs(ctx context.Context, productIDs []int64) (map[int64]model.ReviewStats, error) {
	args := m.Called(ctx, productIDs)
	s, _ := args.Get(0).(map[int64]model.ReviewStats)
	return s, args.Error(1)
}

func (m *ReviewRepoMock) ListByProductID(ctx context.Context, productID int64) ([]model.Review, error) {
	args := m.Called(ctx, productID)
	r, _ := args.Get(0).([]model.Review)
	return r, args.Error(1)
}

func (m *ReviewRepoMock) Create(ctx context.Context, r model.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

type StatsCacheMock struct{ mock.Mock }

func (m *StatsCacheMock) GetMany(ctx context.Context, productIDs []int64) (map[int64]model.ReviewStats, error) {
	args := m.Called(ctx, productIDs)
	s, _ := args.Get(0).(map[int64]model.ReviewStats)
	return s, args.Error(1)
}

func (m *StatsCacheMock) SetMany(ctx context.Context, stats []model.ReviewStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *StatsCacheMock) Invalidate(ctx context.Context, productID int64) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) ListByUser(ctx context.Context, userID string, page repo.Page) ([]model.CartLine, int64, error) {
	args := m.Called(ctx, userID, page)
	lines, _ := args.Get(0).([]model.CartLine)
	return lines, args.Get(1).(int64), args.Error(2)
}

func (m *CartRepoMock) ListAllByUser(ctx context.Context, userID string) ([]model.CartLine, error) {
	args := m.Called(ctx, userID)
	lines, _ := args.Get(0).([]model.CartLine)
	return lines, args.Error(1)
}

func (m *CartRepoMock) CountByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CartRepoMock) Exists(ctx context.Context, userID string, productID int64) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *CartRepoMock) Insert(ctx context.Context, line model.CartLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *CartRepoMock) Delete(ctx context.Context, userID string, productID int64) (int64, error) {
	args := m.Called(ctx, userID, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CartRepoMock) DeleteByProductIDs(ctx context.Context, userID string, productIDs []int64) (int64, error) {
	args := m.Called(ctx, userID, productIDs)
	return args.Get(0).(int64), args.Error(1)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) ListByUser(ctx context.Context, userID string, page repo.Page) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) FindByIDForUser(ctx context.Context, orderID string, userID string) (model.Order, error) {
	args := m.Called(ctx, orderID, userID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) DeleteForUser(ctx context.Context, orderID string, userID string) (int64, error) {
	args := m.Called(ctx, orderID, userID)
	return args.Get(0).(int64), args.Error(1)
}

type CleanupRepoMock struct{ mock.Mock }

func (m *CleanupRepoMock) Create(ctx context.Context, task model.CartCleanupTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *CleanupRepoMock) ListDue(ctx context.Context, now time.Time, limit int) ([]model.CartCleanupTask, error) {
	args := m.Called(ctx, now, limit)
	tasks, _ := args.Get(0).([]model.CartCleanupTask)
	return tasks, args.Error(1)
}

func (m *CleanupRepoMock) Delete(ctx context.Context, taskID string) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *CleanupRepoMock) MarkFailed(ctx context.Context, taskID string, lastError string, next time.Time) error {
	args := m.Called(ctx, taskID, lastError, next)
	return args.Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

type TxReposMock struct {
	OrdersRepo   *OrderRepoMock
	CleanupsRepo *CleanupRepoMock
	AuditRepo    *AuditRepoMock
}

func (r *TxReposMock) Orders() repo.OrderRepository             { return r.OrdersRepo }
func (r *TxReposMock) CartCleanups() repo.CartCleanupRepository { return r.CleanupsRepo }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository       { return r.AuditRepo }

// fnをそのまま実行する
type TxManagerMock struct {
	Repos *TxReposMock
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.Repos)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, ev usecase.OrderEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// =====================
// helper
// =====================

var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

type fixedDelivery struct{ days int }

func (d fixedDelivery) Estimate(t time.Time) time.Time { return t.AddDate(0, 0, d.days) }

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func assertKind(t interface {
	Errorf(format string, args ...interface{})
}, err error, kind usecase.ErrorKind) {
	ae, ok := usecase.AsAppError(err)
	if !ok {
		t.Errorf("expected AppError %s, got %v", kind, err)
		return
	}
	if ae.Kind != kind {
		t.Errorf("expected kind %s, got %s (%s)", kind, ae.Kind, ae.Message)
	}
}

var (
	_ repo.ProductRepository     = (*ProductRepoMock)(nil)
	_ repo.UserRepository        = (*UserRepoMock)(nil)
	_ repo.ReviewRepository      = (*ReviewRepoMock)(nil)
	_ repo.ReviewStatsCache      = (*StatsCacheMock)(nil)
	_ repo.CartRepository        = (*CartRepoMock)(nil)
	_ repo.OrderRepository       = (*OrderRepoMock)(nil)
	_ repo.CartCleanupRepository = (*CleanupRepoMock)(nil)
	_ repo.AuditLogRepository    = (*AuditRepoMock)(nil)
	_ repo.TransactionManager    = (*TxManagerMock)(nil)
)
