package order

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// Place converts the caller's cart into an order and empties the cart atomically.
	Place(ctx context.Context, principal domain.Principal, req domain.OrderRequest) (*domain.Order, error)
	ListByPrincipal(ctx context.Context, principal domain.Principal) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
}
