package category

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetByID(ctx context.Context, id uint64) (*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	Create(ctx context.Context, name string) (*domain.Category, error)
}
