// Package rpc is the storefront's view of the backend's remote procedures.
// Every call is scoped to the identity the client was built for.
package rpc

import (
	"context"

	"storefront/internal/blob"
	"storefront/internal/domain"

	"github.com/samber/mo"
)

// Client is the remote procedure surface the storefront reads and writes
// through. Implementations are safe for concurrent use.
type Client interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id uint64) (*domain.Product, error)
	SearchProducts(ctx context.Context, text string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, in domain.ProductInput) (uint64, error)
	UpdateProduct(ctx context.Context, id uint64, in domain.ProductInput) error
	DeleteProduct(ctx context.Context, id uint64) error

	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name string) (uint64, error)
	GetCategory(ctx context.Context, id uint64) (*domain.Category, error)

	GetCart(ctx context.Context) ([]domain.CartItem, error)
	AddToCart(ctx context.Context, productID, quantity uint64) error
	UpdateCartItem(ctx context.Context, productID, quantity uint64) error
	RemoveFromCart(ctx context.Context, productID uint64) error
	ClearCart(ctx context.Context) error

	PlaceOrder(ctx context.Context, req domain.OrderRequest) (uint64, error)
	OrderHistory(ctx context.Context) ([]domain.Order, error)
	AllOrders(ctx context.Context) ([]domain.Order, error)

	ProductReviews(ctx context.Context, productID uint64) ([]domain.Review, error)
	AddReview(ctx context.Context, r domain.Review) error

	CallerProfile(ctx context.Context) (mo.Option[domain.UserProfile], error)
	SaveCallerProfile(ctx context.Context, p domain.UserProfile) error
	UserProfile(ctx context.Context, principal domain.Principal) (mo.Option[domain.UserProfile], error)

	CallerRole(ctx context.Context) (domain.Role, error)
	IsCallerAdmin(ctx context.Context) (bool, error)
	AssignRole(ctx context.Context, principal domain.Principal, role domain.Role) error

	UploadBlob(ctx context.Context, b *blob.External) (domain.Image, error)
	FetchBlob(ctx context.Context, url string) ([]byte, error)
	DeleteBlob(ctx context.Context, id string) error
}

// Token is an access token issued for a principal.
type Token struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int              `json:"expires_in"`
	Principal   domain.Principal `json:"principal"`
}

// Authenticator issues and revokes access tokens.
type Authenticator interface {
	IssueToken(ctx context.Context, username, password string) (Token, error)
	RevokeToken(ctx context.Context, token string) error
}
