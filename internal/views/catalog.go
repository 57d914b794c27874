package views

import (
	"context"
	"strings"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/storefront"

	"github.com/samber/lo"
)

type ProductCard struct {
	ID           uint64  `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	Description  string  `json:"description" yaml:"description"`
	Price        string  `json:"price" yaml:"price"`
	Rating       float64 `json:"rating" yaml:"rating"`
	RatingLabel  string  `json:"ratingLabel" yaml:"ratingLabel"`
	CategoryID   uint64  `json:"categoryId" yaml:"categoryId"`
	CategoryName string  `json:"categoryName,omitempty" yaml:"categoryName,omitempty"`
	ImageURL     string  `json:"imageUrl" yaml:"imageUrl"`
}

func productCard(p domain.Product, names map[uint64]string) ProductCard {
	return ProductCard{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        Money(p.Price),
		Rating:       p.Rating,
		RatingLabel:  RatingLabel(p.Rating),
		CategoryID:   p.CategoryID,
		CategoryName: names[p.CategoryID],
		ImageURL:     p.Image.URL,
	}
}

type CategoryChip struct {
	ID       uint64 `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Selected bool   `json:"selected" yaml:"selected"`
}

type HomeQuery struct {
	Search   string
	Category uint64
}

type Home struct {
	Search      string                  `json:"search,omitempty" yaml:"search,omitempty"`
	Category    uint64                  `json:"category,omitempty" yaml:"category,omitempty"`
	Categories  Section[[]CategoryChip] `json:"categories" yaml:"categories"`
	Products    Section[[]ProductCard]  `json:"products" yaml:"products"`
	ResultCount *int                    `json:"resultCount,omitempty" yaml:"resultCount,omitempty"`
}

// Home lists all products, or the search results for q.Search, optionally
// narrowed to one category.
func (r *Renderer) Home(ctx context.Context, c *storefront.Client, q HomeQuery) Home {
	q.Search = strings.TrimSpace(q.Search)
	var (
		cats     Section[[]domain.Category]
		products Section[[]domain.Product]
	)
	var wg sync.WaitGroup
	wg.Go(func() {
		cats = load(ctx, r, "categories", c.Categories)
	})
	wg.Go(func() {
		if q.Search != "" {
			products = load(ctx, r, "search", func(ctx context.Context) ([]domain.Product, error) {
				return c.SearchProducts(ctx, q.Search)
			})
		} else {
			products = load(ctx, r, "products", c.Products)
		}
	})
	wg.Wait()

	names := categoryNames(cats)
	h := Home{
		Search:   q.Search,
		Category: q.Category,
		Categories: derive(cats, func(cs []domain.Category) []CategoryChip {
			return lo.Map(cs, func(cat domain.Category, _ int) CategoryChip {
				return CategoryChip{ID: cat.ID, Name: cat.Name, Selected: cat.ID == q.Category}
			})
		}),
		Products: derive(products, func(ps []domain.Product) []ProductCard {
			if q.Category != 0 {
				ps = lo.Filter(ps, func(p domain.Product, _ int) bool { return p.CategoryID == q.Category })
			}
			return lo.Map(ps, func(p domain.Product, _ int) ProductCard { return productCard(p, names) })
		}),
	}
	if q.Search != "" && h.Products.Ready() {
		h.ResultCount = lo.ToPtr(len(h.Products.Data))
	}
	return h
}

func categoryNames(cats Section[[]domain.Category]) map[uint64]string {
	if !cats.Ready() {
		return nil
	}
	return lo.Associate(cats.Data, func(c domain.Category) (uint64, string) { return c.ID, c.Name })
}

type ReviewDefaults struct {
	Reviewer string `json:"reviewer" yaml:"reviewer"`
	Rating   uint8  `json:"rating" yaml:"rating"`
}

type ProductDetail struct {
	Product        Section[ProductCard]     `json:"product" yaml:"product"`
	Reviews        Section[[]domain.Review] `json:"reviews" yaml:"reviews"`
	CanAddToCart   bool                     `json:"canAddToCart" yaml:"canAddToCart"`
	MinQuantity    int                      `json:"minQuantity" yaml:"minQuantity"`
	MaxQuantity    int                      `json:"maxQuantity" yaml:"maxQuantity"`
	ReviewDefaults ReviewDefaults           `json:"reviewDefaults" yaml:"reviewDefaults"`
}

func (r *Renderer) ProductDetail(ctx context.Context, c *storefront.Client, id uint64) ProductDetail {
	var (
		product Section[*domain.Product]
		reviews Section[[]domain.Review]
		cats    Section[[]domain.Category]
		profile Section[string]
	)
	authed := c.Authenticated()
	var wg sync.WaitGroup
	wg.Go(func() {
		product = load(ctx, r, "product", func(ctx context.Context) (*domain.Product, error) {
			return c.Product(ctx, id)
		})
	})
	wg.Go(func() {
		reviews = load(ctx, r, "reviews", func(ctx context.Context) ([]domain.Review, error) {
			return c.Reviews(ctx, id)
		})
	})
	wg.Go(func() {
		cats = load(ctx, r, "categories", c.Categories)
	})
	if authed {
		wg.Go(func() {
			profile = load(ctx, r, "profile", func(ctx context.Context) (string, error) {
				p, err := c.CallerProfile(ctx)
				return p.OrEmpty().Name, err
			})
		})
	}
	wg.Wait()

	names := categoryNames(cats)
	v := ProductDetail{
		Product: derive(product, func(p *domain.Product) ProductCard { return productCard(*p, names) }),
		Reviews: derive(reviews, func(rs []domain.Review) []domain.Review {
			if rs == nil {
				return []domain.Review{}
			}
			return rs
		}),
		MinQuantity:    MinQuantity,
		MaxQuantity:    MaxQuantity,
		ReviewDefaults: ReviewDefaults{Reviewer: storefront.AnonymousReviewer, Rating: 5},
	}
	v.CanAddToCart = authed && v.Product.Ready()
	if profile.Ready() && profile.Data != "" {
		v.ReviewDefaults.Reviewer = profile.Data
	}
	return v
}
