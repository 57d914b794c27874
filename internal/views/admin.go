package views

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/storefront"

	"github.com/samber/lo"
)

type AdminProduct struct {
	ProductCard `yaml:",inline"`
	Image       domain.Image `json:"image" yaml:"image"`
}

type AdminOrder struct {
	ID            uint64             `json:"id" yaml:"id"`
	Customer      domain.Principal   `json:"customer" yaml:"customer"`
	CustomerName  string             `json:"customerName" yaml:"customerName"`
	Phone         string             `json:"phone" yaml:"phone"`
	Address       string             `json:"address" yaml:"address"`
	PaymentMethod string             `json:"paymentMethod" yaml:"paymentMethod"`
	Items         []domain.OrderItem `json:"items" yaml:"items"`
	Total         string             `json:"total" yaml:"total"`
	PlacedAt      string             `json:"placedAt" yaml:"placedAt"`
}

type Admin struct {
	Access     Status                     `json:"access" yaml:"access"`
	Products   Section[[]AdminProduct]    `json:"products" yaml:"products"`
	Categories Section[[]domain.Category] `json:"categories" yaml:"categories"`
	Orders     Section[[]AdminOrder]      `json:"orders" yaml:"orders"`
}

// Admin renders the admin panel. Non-admins get an access-denied view and
// no catalog or order reads are issued for them.
func (r *Renderer) Admin(ctx context.Context, c *storefront.Client) Admin {
	access := load(ctx, r, "admin flag", c.IsAdmin)
	switch {
	case !access.Ready():
		return Admin{Access: access.Status}
	case !access.Data:
		return Admin{Access: StatusAccessDenied}
	}

	var (
		products Section[[]domain.Product]
		cats     Section[[]domain.Category]
		orders   Section[[]domain.Order]
	)
	var wg sync.WaitGroup
	wg.Go(func() {
		products = load(ctx, r, "products", c.Products)
	})
	wg.Go(func() {
		cats = load(ctx, r, "categories", c.Categories)
	})
	wg.Go(func() {
		orders = load(ctx, r, "all orders", c.AllOrders)
	})
	wg.Wait()

	names := categoryNames(cats)
	return Admin{
		Access: StatusReady,
		Products: derive(products, func(ps []domain.Product) []AdminProduct {
			return lo.Map(ps, func(p domain.Product, _ int) AdminProduct {
				return AdminProduct{ProductCard: productCard(p, names), Image: p.Image}
			})
		}),
		Categories: derive(cats, func(cs []domain.Category) []domain.Category {
			if cs == nil {
				return []domain.Category{}
			}
			return cs
		}),
		Orders: derive(orders, func(os []domain.Order) []AdminOrder {
			return lo.Map(os, func(o domain.Order, _ int) AdminOrder {
				return AdminOrder{
					ID:            o.ID,
					Customer:      o.Customer,
					CustomerName:  o.CustomerName,
					Phone:         o.Phone,
					Address:       o.Address,
					PaymentMethod: o.PaymentMethod,
					Items:         o.Items,
					Total:         Money(o.Total),
					PlacedAt:      time.Unix(0, o.Timestamp).UTC().Format(time.RFC3339),
				}
			})
		}),
	}
}
