package review

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	ListByProduct(ctx context.Context, productID uint64) ([]domain.Review, error)
	// Add appends a review and refreshes the product's average rating.
	Add(ctx context.Context, r domain.Review) error
}
