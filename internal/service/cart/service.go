package cart

import (
	"context"
	"errors"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

type Service struct {
	repo        cartrepo.Repository
	productRepo productRepo
}

type productRepo interface {
	GetByID(ctx context.Context, id uint64) (*domain.Product, error)
}

func New(repo cartrepo.Repository, productRepo productRepo) *Service {
	return &Service{repo: repo, productRepo: productRepo}
}

func (s *Service) Get(ctx context.Context, principal domain.Principal) ([]domain.CartItem, error) {
	if principal.IsAnonymous() {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.List(ctx, principal)
}

// Add puts quantity units of productID into the caller's cart, merging with an existing line.
func (s *Service) Add(ctx context.Context, principal domain.Principal, productID, quantity uint64) error {
	if principal.IsAnonymous() {
		return domain.ErrUnauthorized
	}
	if quantity == 0 {
		return domain.Invalid("quantity", "quantity must be positive")
	}
	if s.productRepo == nil {
		return errors.New("product repository unavailable")
	}
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return err
	}
	return s.repo.Add(ctx, principal, productID, quantity)
}

// Update sets the quantity of a line. Zero removes the line.
func (s *Service) Update(ctx context.Context, principal domain.Principal, productID, quantity uint64) error {
	if principal.IsAnonymous() {
		return domain.ErrUnauthorized
	}
	if quantity == 0 {
		return s.repo.Remove(ctx, principal, productID)
	}
	return s.repo.Set(ctx, principal, productID, quantity)
}

func (s *Service) Remove(ctx context.Context, principal domain.Principal, productID uint64) error {
	if principal.IsAnonymous() {
		return domain.ErrUnauthorized
	}
	return s.repo.Remove(ctx, principal, productID)
}

func (s *Service) Clear(ctx context.Context, principal domain.Principal) error {
	if principal.IsAnonymous() {
		return domain.ErrUnauthorized
	}
	return s.repo.Clear(ctx, principal)
}
