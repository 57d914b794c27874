package token

import (
	"context"
	"time"

	"storefront/internal/domain"
)

type Token struct {
	Token     string
	Principal domain.Principal
	Kind      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
}
