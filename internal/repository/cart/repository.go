package cart

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	List(ctx context.Context, principal domain.Principal) ([]domain.CartItem, error)
	// Add increases the quantity of productID, inserting the line when absent.
	Add(ctx context.Context, principal domain.Principal, productID, quantity uint64) error
	// Set overwrites the quantity of an existing line.
	Set(ctx context.Context, principal domain.Principal, productID, quantity uint64) error
	Remove(ctx context.Context, principal domain.Principal, productID uint64) error
	Clear(ctx context.Context, principal domain.Principal) error
}
