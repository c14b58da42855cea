package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
)

// 一覧で見せる商品数
const orderPreviewLimit = 3

type OrderUsecase struct {
	tx        repo.TransactionManager
	products  repo.ProductRepository
	orders    repo.OrderRepository
	carts     repo.CartRepository
	cleaner   *CartCleaner
	publisher OrderEventPublisher
	delivery  DeliveryEstimator
	idGen     IDGenerator
	clock     Clock
	limits    Limits
	logger    zerolog.Logger
}

// DI
func NewOrderUsecase(
	tx repo.TransactionManager,
	products repo.ProductRepository,
	orders repo.OrderRepository,
	carts repo.CartRepository,
	cleaner *CartCleaner,
	publisher OrderEventPublisher,
	delivery DeliveryEstimator,
	idGen IDGenerator,
	clock Clock,
	limits Limits,
	logger zerolog.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		products:  products,
		orders:    orders,
		carts:     carts,
		cleaner:   cleaner,
		publisher: publisher,
		delivery:  delivery,
		idGen:     idGen,
		clock:     clock,
		limits:    limits,
		logger:    logger,
	}
}

type OrderLineInput struct {
	ProductID int64
	Quantity  int
}

// CreateOrder は行を順に検証し、最初の不正行で全体を中止する。
// 注文とカート掃除マーカーは同じTxで保存し、カート行の削除はコミット後に行う。
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID string, lines []OrderLineInput) (OrderView, error) {
	if len(lines) == 0 {
		return OrderView{}, notPerformed("An order must contain at least one product")
	}

	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	byID, err := u.productsByID(ctx, ids)
	if err != nil {
		return OrderView{}, err
	}

	var total float64
	orderLines := make([]model.OrderLine, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return OrderView{}, notFound("Product %d does not exist", l.ProductID)
		}
		if l.Quantity < 1 || l.Quantity > u.limits.MaxQuantity {
			return OrderView{}, notPerformed("You can't buy %d units of product %s", l.Quantity, p.Name)
		}
		total += p.Price * float64(l.Quantity)
		orderLines = append(orderLines, model.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	now := u.clock.Now()
	order := model.Order{
		ID:           u.idGen.NewID(),
		UserID:       userID,
		Lines:        orderLines,
		OrderDate:    now,
		DeliveryDate: u.delivery.Estimate(now),
		Status:       model.OrderStatusNotShipped,
		Total:        total,
	}
	task := model.CartCleanupTask{
		ID:            u.idGen.NewID(),
		OrderID:       order.ID,
		UserID:        userID,
		ProductIDs:    uniqueIDs(ids),
		NextAttemptAt: u.cleaner.FirstAttemptAt(now),
		CreatedAt:     now,
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Orders().Create(ctx, order); err != nil {
			return err
		}
		return r.CartCleanups().Create(ctx, task)
	})
	if errors.Is(err, repo.ErrNotPersisted) {
		return OrderView{}, notPerformed("The order could not be created")
	}
	if err != nil {
		return OrderView{}, storageFailed(ctx, u.logger, "order.Create", err)
	}

	u.publish(ctx, OrderEventCreated, order)

	// 失敗してもマーカーが残るのでワーカーが再実行する
	_ = u.cleaner.Clean(ctx, task)

	return buildOrderView(order, byID, 0), nil
}

// カートの全行から注文を作る
func (u *OrderUsecase) CreateOrderFromCart(ctx context.Context, userID string) (OrderView, error) {
	cartLines, err := u.carts.ListAllByUser(ctx, userID)
	if err != nil {
		return OrderView{}, storageFailed(ctx, u.logger, "cart.ListAllByUser", err)
	}
	if len(cartLines) == 0 {
		return OrderView{}, notPerformed("Your cart is empty")
	}

	lines := make([]OrderLineInput, 0, len(cartLines))
	for _, cl := range cartLines {
		q := cl.Quantity
		if q == 0 {
			q = 1
		}
		lines = append(lines, OrderLineInput{ProductID: cl.ProductID, Quantity: q})
	}
	return u.CreateOrder(ctx, userID, lines)
}

// 注文日の新しい順。商品は価格の高い順に3件まで
func (u *OrderUsecase) ListOrders(ctx context.Context, userID string, page repo.Page) (ListResult[OrderView], error) {
	if err := validatePage(page, u.limits.MaxPageSize); err != nil {
		return ListResult[OrderView]{}, err
	}

	orders, total, err := u.orders.ListByUser(ctx, userID, page)
	if err != nil {
		return ListResult[OrderView]{}, storageFailed(ctx, u.logger, "order.ListByUser", err)
	}

	var ids []int64
	for _, o := range orders {
		ids = append(ids, o.ProductIDs()...)
	}
	byID, err := u.productsByID(ctx, ids)
	if err != nil {
		return ListResult[OrderView]{}, err
	}

	data := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		data = append(data, buildOrderView(o, byID, orderPreviewLimit))
	}
	return ListResult[OrderView]{Data: data, ResultsCount: total}, nil
}

func (u *OrderUsecase) GetOrderDetail(ctx context.Context, userID string, orderID string) (OrderView, error) {
	o, err := u.orders.FindByIDForUser(ctx, orderID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderView{}, notFound("Order %s does not exist", orderID)
	}
	if err != nil {
		return OrderView{}, storageFailed(ctx, u.logger, "order.FindByIDForUser", err)
	}

	byID, err := u.productsByID(ctx, o.ProductIDs())
	if err != nil {
		return OrderView{}, err
	}
	return buildOrderView(o, byID, 0), nil
}

// 注文は物理削除。削除前の内容は監査ログに残す
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID string, orderID string) error {
	var cancelled model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUser(ctx, orderID, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return notPerformed("The order %s could not be cancelled", orderID)
		}
		if err != nil {
			return err
		}

		n, err := r.Orders().DeleteForUser(ctx, orderID, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			return notPerformed("The order %s could not be cancelled", orderID)
		}

		before, err := json.Marshal(o)
		if err != nil {
			return err
		}
		cancelled = o
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ID:           u.idGen.NewID(),
			ActorUserID:  userID,
			Action:       model.AuditActionCancelOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   string(before),
			CreatedAt:    u.clock.Now(),
		})
	})
	if err != nil {
		if _, ok := AsAppError(err); ok {
			return err
		}
		return storageFailed(ctx, u.logger, "order.Cancel", err)
	}

	u.publish(ctx, OrderEventCancelled, cancelled)
	return nil
}

func (u *OrderUsecase) productsByID(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	byID := make(map[int64]model.Product, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	products, err := u.products.FindByProductIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, storageFailed(ctx, u.logger, "product.FindByProductIDs", err)
	}
	for _, p := range products {
		byID[p.ProductID] = p
	}
	return byID, nil
}

// イベント送信は失敗しても注文の結果を変えない
func (u *OrderUsecase) publish(ctx context.Context, typ OrderEventType, o model.Order) {
	ev := OrderEvent{
		Type:       typ,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Total:      o.Total,
		ProductIDs: o.ProductIDs(),
		OccurredAt: u.clock.Now(),
	}
	if err := u.publisher.Publish(ctx, ev); err != nil {
		loggerFrom(ctx, u.logger).Warn().Err(err).Str("orderId", o.ID).Str("type", string(typ)).Msg("order event publish failed")
	}
}

// 現在のカタログと突き合わせる。同じ商品の行は数量をまとめる。limitが0なら全件
func buildOrderView(o model.Order, byID map[int64]model.Product, limit int) OrderView {
	items := make([]OrderProductView, 0, len(o.Lines))
	pos := make(map[int64]int, len(o.Lines))
	for _, l := range o.Lines {
		p, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		if i, seen := pos[l.ProductID]; seen {
			items[i].Quantity += l.Quantity
			continue
		}
		pos[l.ProductID] = len(items)
		items = append(items, OrderProductView{
			ProductID: p.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
			Category:  p.Category,
			Quantity:  l.Quantity,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Price > items[j].Price
	})

	count := len(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	return OrderView{
		OrderID:       o.ID,
		OrderDate:     o.OrderDate,
		DeliveryDate:  o.DeliveryDate,
		Status:        o.Status,
		TotalPrice:    o.Total,
		ProductsCount: count,
		Products:      items,
	}
}
