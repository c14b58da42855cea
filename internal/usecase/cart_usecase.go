package usecase

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
)

// CartUsecase はカートの業務ロジック。
// 表示はカート行に保存したスナップショットを使い、カタログとはjoinしない。
type CartUsecase struct {
	carts    repo.CartRepository
	products repo.ProductRepository
	idGen    IDGenerator
	clock    Clock
	limits   Limits
	logger   zerolog.Logger
}

// DI
func NewCartUsecase(
	carts repo.CartRepository,
	products repo.ProductRepository,
	idGen IDGenerator,
	clock Clock,
	limits Limits,
	logger zerolog.Logger,
) *CartUsecase {
	return &CartUsecase{
		carts:    carts,
		products: products,
		idGen:    idGen,
		clock:    clock,
		limits:   limits,
		logger:   logger,
	}
}

// ListCart は追加日時の新しい順
func (u *CartUsecase) ListCart(ctx context.Context, userID string, page repo.Page) (ListResult[CartLineView], error) {
	if err := validatePage(page, u.limits.MaxPageSize); err != nil {
		return ListResult[CartLineView]{}, err
	}

	lines, total, err := u.carts.ListByUser(ctx, userID, page)
	if err != nil {
		return ListResult[CartLineView]{}, storageFailed(ctx, u.logger, "cart.ListByUser", err)
	}

	data := make([]CartLineView, 0, len(lines))
	for _, l := range lines {
		data = append(data, toCartLineView(l))
	}
	return ListResult[CartLineView]{Data: data, ResultsCount: total}, nil
}

// バッジ表示用の件数
func (u *CartUsecase) Count(ctx context.Context, userID string) (int64, error) {
	n, err := u.carts.CountByUser(ctx, userID)
	if err != nil {
		return 0, storageFailed(ctx, u.logger, "cart.CountByUser", err)
	}
	return n, nil
}

// 既にある商品は数量を足さずに拒否する
func (u *CartUsecase) AddToCart(ctx context.Context, userID string, productID int64, quantity int) (CartLineView, error) {
	p, err := u.findProduct(ctx, productID)
	if err != nil {
		return CartLineView{}, err
	}

	if quantity < 1 || quantity > u.limits.MaxQuantity {
		return CartLineView{}, notPerformed("You can't add %d units of product %s", quantity, p.Name)
	}

	exists, err := u.carts.Exists(ctx, userID, productID)
	if err != nil {
		return CartLineView{}, storageFailed(ctx, u.logger, "cart.Exists", err)
	}
	if exists {
		return CartLineView{}, notPerformed("You already have the product added to your cart")
	}

	line := model.CartLine{
		ID:        u.idGen.NewID(),
		UserID:    userID,
		ProductID: p.ProductID,
		Quantity:  quantity,
		Product: model.ProductSnapshot{
			Name:     p.Name,
			Price:    p.Price,
			Image:    p.Image,
			Category: p.Category,
		},
		AddedAt: u.clock.Now(),
	}

	// 同時追加は一意制約で弾かれる
	if err := u.carts.Insert(ctx, line); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return CartLineView{}, notPerformed("You already have the product added to your cart")
		}
		if errors.Is(err, repo.ErrNotPersisted) {
			return CartLineView{}, notPerformed("The product could not be added to your cart")
		}
		return CartLineView{}, storageFailed(ctx, u.logger, "cart.Insert", err)
	}
	return toCartLineView(line), nil
}

func (u *CartUsecase) RemoveFromCart(ctx context.Context, userID string, productID int64) error {
	if _, err := u.findProduct(ctx, productID); err != nil {
		return err
	}

	n, err := u.carts.Delete(ctx, userID, productID)
	if err != nil {
		return storageFailed(ctx, u.logger, "cart.Delete", err)
	}
	if n == 0 {
		return notPerformed("The product is not in your cart")
	}
	return nil
}

func (u *CartUsecase) findProduct(ctx context.Context, productID int64) (model.Product, error) {
	p, err := u.products.FindByProductID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, notFound("Product %d does not exist", productID)
	}
	if err != nil {
		return model.Product{}, storageFailed(ctx, u.logger, "product.FindByProductID", err)
	}
	return p, nil
}
