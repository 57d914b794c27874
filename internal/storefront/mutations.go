package storefront

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/blob"
	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/rpc"
)

type none struct{}

// mutate waits for the remote client of the current identity, then runs fn
// as a cache mutation. A client unbound in between fails the mutation with
// cache.ErrNotReady rather than running it under another identity.
func mutate[T any](ctx context.Context, c *Client, fn func(context.Context, rpc.Client) (T, error), targets ...cache.Target) (T, error) {
	if _, err := c.conn.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	return cache.Mutate(ctx, c.cache, fn, targets...)
}

func (c *Client) requireLogin() error {
	if !c.Authenticated() {
		return domain.ErrUnauthorized
	}
	return nil
}

// requireAdmin fails with domain.ErrForbidden unless the caller holds the
// admin role.
func (c *Client) requireAdmin(ctx context.Context) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	admin, err := c.IsAdmin(ctx)
	if err != nil {
		return err
	}
	if !admin {
		return domain.ErrForbidden
	}
	return nil
}

// UploadImage stores a local image and returns its handle. Handles that
// already reference stored content pass through. Only admins upload.
func (c *Client) UploadImage(ctx context.Context, b *blob.External) (domain.Image, error) {
	if err := c.requireAdmin(ctx); err != nil {
		return domain.Image{}, err
	}
	return mutate(ctx, c, func(ctx context.Context, r rpc.Client) (domain.Image, error) {
		return r.UploadBlob(ctx, b)
	}, Invalidates(MutUploadBlob)...)
}

// discardImage removes an image uploaded for a product write that failed.
func (c *Client) discardImage(ctx context.Context, b *blob.External, img domain.Image) {
	if !b.Local() || img.ID == "" {
		return
	}
	_, err := mutate(context.WithoutCancel(ctx), c, func(ctx context.Context, r rpc.Client) (none, error) {
		return none{}, r.DeleteBlob(ctx, img.ID)
	})
	if err != nil {
		c.logger.Printf("storefront: orphaned image %s: %v", img.ID, err)
	}
}

func (c *Client) CreateProduct(ctx context.Context, d ProductDraft) (uint64, error) {
	in, err := d.input()
	if err != nil {
		return 0, err
	}
	if d.Image == nil {
		return 0, domain.Invalid("image", "is required")
	}
	if err := c.requireAdmin(ctx); err != nil {
		return 0, err
	}
	if in.Image, err = c.UploadImage(ctx, d.Image); err != nil {
		return 0, fmt.Errorf("upload image: %w", err)
	}
	id, err := mutate(ctx, c, func(ctx context.Context, r rpc.Client) (uint64, error) {
		return r.CreateProduct(ctx, in)
	}, Invalidates(MutCreateProduct)...)
	if err != nil {
		c.discardImage(ctx, d.Image, in.Image)
		return 0, err
	}
	return id, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id uint64, d ProductDraft) error {
	in, err := d.input()
	if err != nil {
		return err
	}
	if err := c.requireAdmin(ctx); err != nil {
		return err
	}
	if d.Image != nil {
		if in.Image, err = c.UploadImage(ctx, d.Image); err != nil {
			return fmt.Errorf("upload image: %w", err)
		}
	} else {
		current, err := c.Product(ctx, id)
		if err != nil {
			return err
		}
		in.Image = current.Image
	}
	_, err = mutate(ctx, c, func(ctx context.Context, r rpc.Client) (none, error) {
		return none{}, r.UpdateProduct(ctx, id, in)
	}, Invalidates(MutUpdateProduct)...)
	if err != nil && d.Image != nil {
		c.discardImage(ctx, d.Image, in.Image)
	}
	return err
}

func (c *Client) DeleteProduct(ctx context.Context, id uint64) error {
	_, err := mutate(ctx, c, func(ctx context.Context, r rpc.Client) (none, error) {
		return none{}, r.DeleteProduct(ctx, id)
	}, Invalidates(MutDeleteProduct)...)
	return err
}

func (c *Client) CreateCategory(ctx context.Context, name string) (uint64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.Invalid("name", "is required")
	}
	return mutate(ctx, c, func(ctx context.Context, r rpc.Client) (uint64, error) {
		return r.CreateCategory(ctx, name)
	}, Invalidates(MutCreateCategory)...)
}

// AddToCart adds quantity units of a product. Quantities below one are
// rejected without a remote call.
func (c *Client) AddToCart(ctx context.Context, productID, quantity uint64) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	if quantity < 1 {
		return domain.Invalid("quantity", "must be at least 1")
	}
	_, err := mutate(ctx, c, func(ctx context.Context, r rpc.Client) (none, error) {
		return none{}, r.AddToCart(ctx, productID, quantity)
	}, Invalidates(MutAddToCart)...)
	return err
}

// UpdateCartItem sets a line's quantity. Zero removes the line; the cart
// never holds a line below one.
func (c *Client) UpdateCartItem(ctx context.Context, productID, quantity uint64) error {
	if quantity == 0 {
		return c.RemoveFromCart(ctx, productID)
	}
	if err := c.requireLogin(); err != nil {
		return err
	}
	_, err := mutate(ctx, c, func(ctx context.Context, r rpc.Client) (none, error) {
		return none{}, r.UpdateCartItem(ctx, productID, quantity)
	}, Invalidates(MutUpdateCartItem)...)
	return err
}

func (c *Client) RemoveFromCart(ctx context.Context, productID uint64) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	_, err := mutate(ctx, c, func(ctx context.Context, r rpc.Client) (none, error) {
		return none{}, r.RemoveFromCart(ctx, productID)
	}, Invalidates(MutRemoveFromCart)...)
	return err
}

func (c *Client) ClearCart(ctx context.Context) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	_, err := mutate(ctx, c, func(ctx context.Context, r rpc.Client) (none, error) {
		return none{}, r.ClearCart(ctx)
	}, Invalidates(MutClearCart)...)
	return err
}

// PlaceOrder checks out the caller's cart. It fails before any remote write
// when the caller is anonymous, the form is incomplete or the cart is empty.
func (c *Client) PlaceOrder(ctx context.Context, f CheckoutForm) (uint64, error) {
	if err := c.requireLogin(); err != nil {
		return 0, err
	}
	req, err := f.request()
	if err != nil {
		return 0, err
	}
	items, err := c.Cart(ctx)
	if err != nil {
		return 0, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return 0, domain.ErrEmptyCart
	}
	return mutate(ctx, c, func(ctx context.Context, r rpc.Client) (uint64, error) {
		return r.PlaceOrder(ctx, req)
	}, Invalidates(MutPlaceOrder)...)
}

// AddReview submits a review. The reviewer name falls back to the caller's
// profile name and then to AnonymousReviewer.
func (c *Client) AddReview(ctx context.Context, f ReviewForm) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	rv, err := f.review()
	if err != nil {
		return err
	}
	if rv.Reviewer == "" {
		rv.Reviewer = AnonymousReviewer
		if p, err := c.CallerProfile(ctx); err == nil {
			if prof, ok := p.Get(); ok && strings.TrimSpace(prof.Name) != "" {
				rv.Reviewer = prof.Name
			}
		}
	}
	_, err = mutate(ctx, c, func(ctx context.Context, r rpc.Client) (none, error) {
		return none{}, r.AddReview(ctx, rv)
	}, Invalidates(MutAddReview, cache.Exact(ReviewsKey(rv.ProductID)))...)
	return err
}

func (c *Client) SaveProfile(ctx context.Context, name string) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Invalid("name", "is required")
	}
	_, err := mutate(ctx, c, func(ctx context.Context, r rpc.Client) (none, error) {
		return none{}, r.SaveCallerProfile(ctx, domain.UserProfile{Name: name})
	}, Invalidates(MutSaveProfile)...)
	return err
}

func (c *Client) AssignRole(ctx context.Context, p domain.Principal, role domain.Role) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	_, err := mutate(ctx, c, func(ctx context.Context, r rpc.Client) (none, error) {
		return none{}, r.AssignRole(ctx, p, role)
	}, Invalidates(MutAssignRole)...)
	return err
}
