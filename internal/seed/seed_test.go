package seed

import (
	"context"
	"strings"
	"testing"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"
)

type stubAccounts struct {
	existing map[string]*domain.Account
	promoted []domain.Principal
}

func (s *stubAccounts) Signup(_ context.Context, in authsvc.SignupInput) (*domain.Account, error) {
	if _, ok := s.existing[in.Username]; ok {
		return nil, domain.ErrAlreadyExists
	}
	acc := &domain.Account{Principal: domain.Principal("p-" + in.Username), Username: in.Username, Role: in.Role}
	s.existing[in.Username] = acc
	return acc, nil
}

func (s *stubAccounts) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	acc, ok := s.existing[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return acc, nil
}

func (s *stubAccounts) SetRole(_ context.Context, p domain.Principal, role domain.Role) error {
	s.promoted = append(s.promoted, p)
	for _, acc := range s.existing {
		if acc.Principal == p {
			acc.Role = role
		}
	}
	return nil
}

type countingCatalog struct {
	categories map[string]uint64
	products   []domain.ProductInput
}

func (c *countingCatalog) EnsureCategory(_ context.Context, name string) (*domain.Category, error) {
	key := strings.ToLower(name)
	if id, ok := c.categories[key]; ok {
		return &domain.Category{ID: id, Name: name}, nil
	}
	id := uint64(len(c.categories) + 1)
	c.categories[key] = id
	return &domain.Category{ID: id, Name: name}, nil
}

func (c *countingCatalog) ListProducts(context.Context) ([]domain.Product, error) { return nil, nil }

func (c *countingCatalog) CreateProduct(_ context.Context, in domain.ProductInput) (*domain.Product, error) {
	c.products = append(c.products, in)
	return &domain.Product{ID: uint64(len(c.products))}, nil
}

func (c *countingCatalog) UpdateProduct(_ context.Context, id uint64, _ domain.ProductInput) (*domain.Product, error) {
	return &domain.Product{ID: id}, nil
}

func TestApply_CreatesAdminAndCatalog(t *testing.T) {
	accounts := &stubAccounts{existing: map[string]*domain.Account{}}
	catalog := &countingCatalog{categories: map[string]uint64{}}

	err := Apply(context.Background(), accounts, accounts, catalog, Options{AdminUsername: "admin", AdminPassword: "Admin1234"}, nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if accounts.existing["admin"].Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %+v", accounts.existing["admin"])
	}
	if len(catalog.products) != 5 || len(catalog.categories) != 3 {
		t.Fatalf("unexpected catalog: products=%d categories=%d", len(catalog.products), len(catalog.categories))
	}
}

func TestApply_PromotesExistingAccount(t *testing.T) {
	accounts := &stubAccounts{existing: map[string]*domain.Account{
		"admin": {Principal: "p-admin", Username: "admin", Role: domain.RoleUser},
	}}
	catalog := &countingCatalog{categories: map[string]uint64{}}

	if err := Apply(context.Background(), accounts, accounts, catalog, Options{AdminUsername: "admin", AdminPassword: "Admin1234"}, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(accounts.promoted) != 1 || accounts.promoted[0] != "p-admin" {
		t.Fatalf("expected promotion of p-admin, got %v", accounts.promoted)
	}
}
