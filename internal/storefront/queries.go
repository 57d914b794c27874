package storefront

import (
	"context"
	"strings"

	"storefront/internal/blob"
	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/rpc"

	"github.com/samber/mo"
)

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	return cache.Fetch(ctx, c.cache, KeyProducts, func(ctx context.Context, r rpc.Client) ([]domain.Product, error) {
		return r.ListProducts(ctx)
	})
}

// SearchProducts returns products matching text. Blank text yields no results
// without a remote call.
func (c *Client) SearchProducts(ctx context.Context, text string) ([]domain.Product, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return cache.Fetch(ctx, c.cache, SearchKey(text), func(ctx context.Context, r rpc.Client) ([]domain.Product, error) {
		return r.SearchProducts(ctx, text)
	})
}

func (c *Client) Product(ctx context.Context, id uint64) (*domain.Product, error) {
	return cache.Fetch(ctx, c.cache, ProductKey(id), func(ctx context.Context, r rpc.Client) (*domain.Product, error) {
		return r.GetProduct(ctx, id)
	})
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	return cache.Fetch(ctx, c.cache, KeyCategories, func(ctx context.Context, r rpc.Client) ([]domain.Category, error) {
		return r.ListCategories(ctx)
	})
}

func (c *Client) Category(ctx context.Context, id uint64) (*domain.Category, error) {
	return cache.Fetch(ctx, c.cache, CategoryKey(id), func(ctx context.Context, r rpc.Client) (*domain.Category, error) {
		return r.GetCategory(ctx, id)
	})
}

func (c *Client) Reviews(ctx context.Context, productID uint64) ([]domain.Review, error) {
	return cache.Fetch(ctx, c.cache, ReviewsKey(productID), func(ctx context.Context, r rpc.Client) ([]domain.Review, error) {
		return r.ProductReviews(ctx, productID)
	})
}

// Cart returns the caller's cart; the anonymous caller has an empty cart.
func (c *Client) Cart(ctx context.Context) ([]domain.CartItem, error) {
	if !c.Authenticated() {
		return nil, nil
	}
	return cache.Fetch(ctx, c.cache, KeyCart, func(ctx context.Context, r rpc.Client) ([]domain.CartItem, error) {
		return r.GetCart(ctx)
	})
}

// CartCount is the total quantity across cart lines.
func (c *Client) CartCount(ctx context.Context) (uint64, error) {
	items, err := c.Cart(ctx)
	if err != nil {
		return 0, err
	}
	var n uint64
	for _, it := range items {
		n += it.Quantity
	}
	return n, nil
}

func (c *Client) OrderHistory(ctx context.Context) ([]domain.Order, error) {
	if !c.Authenticated() {
		return nil, nil
	}
	return cache.Fetch(ctx, c.cache, KeyOrders, func(ctx context.Context, r rpc.Client) ([]domain.Order, error) {
		return r.OrderHistory(ctx)
	})
}

func (c *Client) AllOrders(ctx context.Context) ([]domain.Order, error) {
	return cache.Fetch(ctx, c.cache, KeyAllOrders, func(ctx context.Context, r rpc.Client) ([]domain.Order, error) {
		return r.AllOrders(ctx)
	})
}

// CallerProfile is None for the anonymous caller and for a principal that
// has not saved a profile yet.
func (c *Client) CallerProfile(ctx context.Context) (mo.Option[domain.UserProfile], error) {
	return cache.Fetch(ctx, c.cache, KeyProfile, func(ctx context.Context, r rpc.Client) (mo.Option[domain.UserProfile], error) {
		return r.CallerProfile(ctx)
	})
}

func (c *Client) UserProfile(ctx context.Context, p domain.Principal) (mo.Option[domain.UserProfile], error) {
	return cache.Fetch(ctx, c.cache, UserProfileKey(p), func(ctx context.Context, r rpc.Client) (mo.Option[domain.UserProfile], error) {
		return r.UserProfile(ctx, p)
	})
}

func (c *Client) Role(ctx context.Context) (domain.Role, error) {
	return cache.Fetch(ctx, c.cache, KeyRole, func(ctx context.Context, r rpc.Client) (domain.Role, error) {
		return r.CallerRole(ctx)
	})
}

func (c *Client) IsAdmin(ctx context.Context) (bool, error) {
	return cache.Fetch(ctx, c.cache, KeyIsAdmin, func(ctx context.Context, r rpc.Client) (bool, error) {
		return r.IsCallerAdmin(ctx)
	})
}

// BlobBytes returns the content behind an image handle, downloading through
// the bound remote client when needed.
func (c *Client) BlobBytes(ctx context.Context, b *blob.External) ([]byte, error) {
	r, err := c.conn.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return b.Bytes(ctx, r)
}
