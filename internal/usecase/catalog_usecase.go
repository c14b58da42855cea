package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
)

type CatalogUsecase struct {
	products   repo.ProductRepository
	users      repo.UserRepository
	reviews    repo.ReviewRepository
	carts      repo.CartRepository
	audit      repo.AuditLogRepository
	aggregator *ReviewAggregator
	idGen      IDGenerator
	clock      Clock
	limits     Limits
	logger     zerolog.Logger
}

// DI
func NewCatalogUsecase(
	products repo.ProductRepository,
	users repo.UserRepository,
	reviews repo.ReviewRepository,
	carts repo.CartRepository,
	audit repo.AuditLogRepository,
	aggregator *ReviewAggregator,
	idGen IDGenerator,
	clock Clock,
	limits Limits,
	logger zerolog.Logger,
) *CatalogUsecase {
	return &CatalogUsecase{
		products:   products,
		users:      users,
		reviews:    reviews,
		carts:      carts,
		audit:      audit,
		aggregator: aggregator,
		idGen:      idGen,
		clock:      clock,
		limits:     limits,
		logger:     logger,
	}
}

// GET /productsの入力
type ListProductsInput struct {
	Page      repo.Page
	SortField string
	SortOrder string
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
}

func (u *CatalogUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ListResult[ProductListItem], error) {
	q, err := u.buildListQuery(in)
	if err != nil {
		return ListResult[ProductListItem]{}, err
	}

	items, total, err := u.products.List(ctx, q)
	if err != nil {
		return ListResult[ProductListItem]{}, storageFailed(ctx, u.logger, "product.List", err)
	}

	ids := make([]int64, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ProductID)
	}
	// ページ分をまとめて集計
	stats, err := u.aggregator.AggregateForProducts(ctx, ids)
	if err != nil {
		return ListResult[ProductListItem]{}, err
	}

	data := make([]ProductListItem, 0, len(items))
	for _, p := range items {
		data = append(data, toProductListItem(p, stats[p.ProductID]))
	}
	return ListResult[ProductListItem]{Data: data, ResultsCount: total}, nil
}

func (u *CatalogUsecase) buildListQuery(in ListProductsInput) (repo.ProductListQuery, error) {
	if err := validatePage(in.Page, u.limits.MaxPageSize); err != nil {
		return repo.ProductListQuery{}, err
	}

	q := repo.ProductListQuery{
		Page:      in.Page,
		SortField: repo.ProductSortByProductID,
		SortOrder: repo.SortAsc,
		MinPrice:  in.MinPrice,
		MaxPrice:  in.MaxPrice,
	}

	if in.Category != "" {
		c, ok := model.ParseCategory(in.Category)
		if !ok {
			return repo.ProductListQuery{}, invalidInput("unknown category %q", in.Category)
		}
		q.Category = &c
	}

	switch repo.ProductSortField(in.SortField) {
	case "":
	case repo.ProductSortByProductID, repo.ProductSortByPrice, repo.ProductSortByName:
		q.SortField = repo.ProductSortField(in.SortField)
	default:
		return repo.ProductListQuery{}, invalidInput("invalid sortField %q", in.SortField)
	}

	switch repo.SortOrder(strings.ToLower(in.SortOrder)) {
	case "", repo.SortAsc:
	case repo.SortDesc:
		q.SortOrder = repo.SortDesc
	default:
		return repo.ProductListQuery{}, invalidInput("invalid sortOrder %q", in.SortOrder)
	}

	//価格帯
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return repo.ProductListQuery{}, invalidInput("minPrice must be >= 0")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return repo.ProductListQuery{}, invalidInput("maxPrice must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return repo.ProductListQuery{}, invalidInput("minPrice must be <= maxPrice")
	}
	return q, nil
}

// 商品詳細。userIDが空なら匿名（inCartは常にfalse）
func (u *CatalogUsecase) GetProductDetail(ctx context.Context, productID int64, userID string) (ProductDetail, error) {
	p, err := u.products.FindByProductID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductDetail{}, notFound("Product %d does not exist", productID)
	}
	if err != nil {
		return ProductDetail{}, storageFailed(ctx, u.logger, "product.FindByProductID", err)
	}

	// 著者がいない商品は存在しない扱い
	author, err := u.users.FindByID(ctx, p.AuthorID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductDetail{}, notFound("Product %d does not exist", productID)
	}
	if err != nil {
		return ProductDetail{}, storageFailed(ctx, u.logger, "user.FindByID", err)
	}

	reviews, err := u.reviewsWithAuthors(ctx, productID)
	if err != nil {
		return ProductDetail{}, err
	}

	inCart := false
	if userID != "" {
		inCart, err = u.carts.Exists(ctx, userID, productID)
		if err != nil {
			return ProductDetail{}, storageFailed(ctx, u.logger, "cart.Exists", err)
		}
	}

	shown := make([]model.Review, 0, len(reviews))
	views := make([]ReviewView, 0, len(reviews))
	for _, r := range reviews {
		shown = append(shown, r.review)
		views = append(views, ReviewView{
			ID:          r.review.ID,
			Rating:      r.review.Rating,
			Title:       r.review.Title,
			Description: r.review.Description,
			CreatedAt:   r.review.CreatedAt,
			Author:      AuthorView{ID: r.author.ID, Username: r.author.Username},
		})
	}
	stats := statsFromReviews(productID, shown)

	return ProductDetail{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Category:      p.Category,
		Image:         p.Image,
		Author:        AuthorView{ID: author.ID, Username: author.Username},
		Reviews:       views,
		ReviewsCount:  stats.Count,
		AverageRating: stats.Average,
		InCart:        inCart,
	}, nil
}

type reviewWithAuthor struct {
	review model.Review
	author model.User
}

// 著者が消えたレビューは落とす
func (u *CatalogUsecase) reviewsWithAuthors(ctx context.Context, productID int64) ([]reviewWithAuthor, error) {
	reviews, err := u.reviews.ListByProductID(ctx, productID)
	if err != nil {
		return nil, storageFailed(ctx, u.logger, "review.ListByProductID", err)
	}
	if len(reviews) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(reviews))
	userIDs := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		userIDs = append(userIDs, r.UserID)
	}

	users, err := u.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, storageFailed(ctx, u.logger, "user.FindByIDs", err)
	}
	byID := make(map[string]model.User, len(users))
	for _, usr := range users {
		byID[usr.ID] = usr
	}

	out := make([]reviewWithAuthor, 0, len(reviews))
	for _, r := range reviews {
		a, ok := byID[r.UserID]
		if !ok {
			continue
		}
		out = append(out, reviewWithAuthor{review: r, author: a})
	}
	return out, nil
}

// POST /productの入力
type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Image       []byte
}

func (u *CatalogUsecase) CreateProduct(ctx context.Context, authorID string, in CreateProductInput) (model.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Product{}, invalidInput("name required")
	}
	if in.Price < 0 {
		return model.Product{}, invalidInput("price must be >= 0")
	}
	category, ok := model.ParseCategory(in.Category)
	if !ok {
		return model.Product{}, invalidInput("unknown category %q", in.Category)
	}

	productID, err := u.products.NextProductID(ctx)
	if err != nil {
		return model.Product{}, storageFailed(ctx, u.logger, "product.NextProductID", err)
	}

	now := u.clock.Now()
	created, err := u.products.Create(ctx, model.Product{
		ID:          u.idGen.NewID(),
		ProductID:   productID,
		Name:        name,
		Description: in.Description,
		Price:       in.Price,
		Category:    category,
		Image:       in.Image,
		AuthorID:    authorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if errors.Is(err, repo.ErrNotPersisted) || errors.Is(err, repo.ErrDuplicate) {
		return model.Product{}, notPerformed("The product could not be created")
	}
	if err != nil {
		return model.Product{}, storageFailed(ctx, u.logger, "product.Create", err)
	}

	//監査ログ。商品は作成済みなので失敗はログのみ
	after, _ := json.Marshal(map[string]any{
		"productId": created.ProductID,
		"name":      created.Name,
		"price":     created.Price,
		"category":  created.Category,
	})
	if err := u.audit.Create(ctx, model.AuditLog{
		ID:           u.idGen.NewID(),
		ActorUserID:  authorID,
		Action:       model.AuditActionCreateProduct,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   created.ID,
		AfterJSON:    string(after),
		CreatedAt:    now,
	}); err != nil {
		loggerFrom(ctx, u.logger).Warn().Err(err).Int64("productId", created.ProductID).Msg("audit log write failed")
	}

	return created, nil
}
