package account

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, a domain.Account) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByPrincipal(ctx context.Context, principal domain.Principal) (*domain.Account, error)
	SetRole(ctx context.Context, principal domain.Principal, role domain.Role) error
}
