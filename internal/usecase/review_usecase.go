package usecase

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
)

type ReviewUsecase struct {
	products   repo.ProductRepository
	reviews    repo.ReviewRepository
	aggregator *ReviewAggregator
	idGen      IDGenerator
	clock      Clock
	logger     zerolog.Logger
}

// DI
func NewReviewUsecase(
	products repo.ProductRepository,
	reviews repo.ReviewRepository,
	aggregator *ReviewAggregator,
	idGen IDGenerator,
	clock Clock,
	logger zerolog.Logger,
) *ReviewUsecase {
	return &ReviewUsecase{
		products:   products,
		reviews:    reviews,
		aggregator: aggregator,
		idGen:      idGen,
		clock:      clock,
		logger:     logger,
	}
}

type CreateReviewInput struct {
	Rating      int
	Title       string
	Description string
}

func (u *ReviewUsecase) CreateReview(ctx context.Context, userID string, productID int64, in CreateReviewInput) (model.Review, error) {
	if _, err := u.products.FindByProductID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Review{}, notFound("Product %d does not exist", productID)
		}
		return model.Review{}, storageFailed(ctx, u.logger, "product.FindByProductID", err)
	}

	if in.Rating < model.MinRating || in.Rating > model.MaxRating {
		return model.Review{}, notPerformed("Rating must be between %d and %d", model.MinRating, model.MaxRating)
	}

	review := model.Review{
		ID:          u.idGen.NewID(),
		ProductID:   productID,
		UserID:      userID,
		Rating:      in.Rating,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		CreatedAt:   u.clock.Now(),
	}
	if err := u.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repo.ErrNotPersisted) {
			return model.Review{}, notPerformed("The review could not be created")
		}
		return model.Review{}, storageFailed(ctx, u.logger, "review.Create", err)
	}

	u.aggregator.Invalidate(ctx, productID)
	return review, nil
}
