package product

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	Search(ctx context.Context, text string) ([]domain.Product, error)
	GetByID(ctx context.Context, id uint64) (*domain.Product, error)
	Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uint64, in domain.ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uint64) error
}
