package views

import (
	"context"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/storefront"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type CartLine struct {
	ProductID    uint64 `json:"productId" yaml:"productId"`
	Name         string `json:"name" yaml:"name"`
	ImageURL     string `json:"imageUrl" yaml:"imageUrl"`
	Quantity     uint64 `json:"quantity" yaml:"quantity"`
	UnitPrice    string `json:"unitPrice" yaml:"unitPrice"`
	LineTotal    string `json:"lineTotal" yaml:"lineTotal"`
	CanDecrement bool   `json:"canDecrement" yaml:"canDecrement"`
}

type CartSummary struct {
	Lines     []CartLine `json:"lines" yaml:"lines"`
	ItemCount uint64     `json:"itemCount" yaml:"itemCount"`
	Subtotal  string     `json:"subtotal" yaml:"subtotal"`
	Empty     bool       `json:"empty" yaml:"empty"`
}

type Cart struct {
	Summary     Section[CartSummary] `json:"summary" yaml:"summary"`
	CanCheckout bool                 `json:"canCheckout" yaml:"canCheckout"`
}

// Subtotal sums price times quantity over the cart lines whose product is
// known, rounded to cents.
func Subtotal(items []domain.CartItem, products []domain.Product) decimal.Decimal {
	byID := lo.KeyBy(products, func(p domain.Product) uint64 { return p.ID })
	total := decimal.Zero
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		total = total.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Round(2)
}

func summarize(items []domain.CartItem, products []domain.Product) CartSummary {
	byID := lo.KeyBy(products, func(p domain.Product) uint64 { return p.ID })
	lines := lo.FilterMap(items, func(it domain.CartItem, _ int) (CartLine, bool) {
		p, ok := byID[it.ProductID]
		if !ok {
			return CartLine{}, false
		}
		unit := decimal.NewFromFloat(p.Price)
		return CartLine{
			ProductID:    p.ID,
			Name:         p.Name,
			ImageURL:     p.Image.URL,
			Quantity:     it.Quantity,
			UnitPrice:    unit.StringFixed(2),
			LineTotal:    unit.Mul(decimal.NewFromInt(int64(it.Quantity))).StringFixed(2),
			CanDecrement: it.Quantity > MinQuantity,
		}, true
	})
	return CartSummary{
		Lines:     lines,
		ItemCount: lo.SumBy(lines, func(l CartLine) uint64 { return l.Quantity }),
		Subtotal:  Subtotal(items, products).StringFixed(2),
		Empty:     len(lines) == 0,
	}
}

// cartSummary loads the cart and the product list it is joined with.
func (r *Renderer) cartSummary(ctx context.Context, c *storefront.Client) Section[CartSummary] {
	var (
		items    Section[[]domain.CartItem]
		products Section[[]domain.Product]
	)
	var wg sync.WaitGroup
	wg.Go(func() {
		items = load(ctx, r, "cart", c.Cart)
	})
	wg.Go(func() {
		products = load(ctx, r, "products", c.Products)
	})
	wg.Wait()

	if !items.Ready() {
		return derive(items, func([]domain.CartItem) CartSummary { return CartSummary{} })
	}
	return derive(products, func(ps []domain.Product) CartSummary { return summarize(items.Data, ps) })
}

func (r *Renderer) Cart(ctx context.Context, c *storefront.Client) Cart {
	if !c.Authenticated() {
		return Cart{Summary: withStatus[CartSummary](StatusLoginRequired)}
	}
	s := r.cartSummary(ctx, c)
	return Cart{Summary: s, CanCheckout: s.Ready() && !s.Data.Empty}
}

type CheckoutDefaults struct {
	CustomerName  string `json:"customerName" yaml:"customerName"`
	PaymentMethod string `json:"paymentMethod" yaml:"paymentMethod"`
}

type Checkout struct {
	Summary        Section[CartSummary] `json:"summary" yaml:"summary"`
	Defaults       CheckoutDefaults     `json:"defaults" yaml:"defaults"`
	PaymentMethods []string             `json:"paymentMethods" yaml:"paymentMethods"`
	CanPlaceOrder  bool                 `json:"canPlaceOrder" yaml:"canPlaceOrder"`
}

func (r *Renderer) Checkout(ctx context.Context, c *storefront.Client) Checkout {
	v := Checkout{
		Defaults:       CheckoutDefaults{PaymentMethod: domain.PaymentCOD},
		PaymentMethods: []string{domain.PaymentCOD, domain.PaymentUPI},
	}
	if !c.Authenticated() {
		v.Summary = withStatus[CartSummary](StatusLoginRequired)
		return v
	}
	var name Section[string]
	var wg sync.WaitGroup
	wg.Go(func() {
		v.Summary = r.cartSummary(ctx, c)
	})
	wg.Go(func() {
		name = load(ctx, r, "profile", func(ctx context.Context) (string, error) {
			p, err := c.CallerProfile(ctx)
			return p.OrEmpty().Name, err
		})
	})
	wg.Wait()

	if name.Ready() {
		v.Defaults.CustomerName = name.Data
	}
	v.CanPlaceOrder = v.Summary.Ready() && !v.Summary.Data.Empty
	return v
}
