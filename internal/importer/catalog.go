package importer

import (
	"context"

	"storefront/internal/domain"
	categorysvc "storefront/internal/service/category"
	productsvc "storefront/internal/service/product"
)

type serviceCatalog struct {
	categories *categorysvc.Service
	products   *productsvc.Service
}

// NewServiceCatalog writes through the backend catalog services so imported
// rows get the same validation as API requests.
func NewServiceCatalog(categories *categorysvc.Service, products *productsvc.Service) Catalog {
	return &serviceCatalog{categories: categories, products: products}
}

func (c *serviceCatalog) EnsureCategory(ctx context.Context, name string) (*domain.Category, error) {
	return c.categories.Ensure(ctx, name)
}

func (c *serviceCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return c.products.List(ctx)
}

func (c *serviceCatalog) CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	return c.products.Create(ctx, in)
}

func (c *serviceCatalog) UpdateProduct(ctx context.Context, id uint64, in domain.ProductInput) (*domain.Product, error) {
	return c.products.Update(ctx, id, in)
}
