package profile

import (
	"context"

	"storefront/internal/domain"

	"github.com/samber/mo"
)

type Repository interface {
	Get(ctx context.Context, principal domain.Principal) (mo.Option[domain.UserProfile], error)
	Save(ctx context.Context, principal domain.Principal, p domain.UserProfile) error
}
