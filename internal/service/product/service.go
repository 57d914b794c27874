package product

import (
	"context"
	"errors"
	"math"
	"strings"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo       productrepo.Repository
	categories categoryLookup
}

type categoryLookup interface {
	GetByID(ctx context.Context, id uint64) (*domain.Category, error)
}

func New(repo productrepo.Repository, categories categoryLookup) *Service {
	return &Service{repo: repo, categories: categories}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

// Search matches text against product names and descriptions. Blank text lists everything.
func (s *Service) Search(ctx context.Context, text string) ([]domain.Product, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.repo.List(ctx)
	}
	return s.repo.Search(ctx, text)
}

func (s *Service) Get(ctx context.Context, id uint64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	in, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id uint64, in domain.ProductInput) (*domain.Product, error) {
	in, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id uint64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(ctx context.Context, in domain.ProductInput) (domain.ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return in, domain.Invalid("name", "name required")
	}
	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) || in.Price < 0 {
		return in, domain.Invalid("price", "price must be a non-negative number")
	}
	if in.CategoryID == 0 {
		return in, domain.Invalid("category", "category required")
	}
	if s.categories != nil {
		if _, err := s.categories.GetByID(ctx, in.CategoryID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return in, domain.Invalid("category", "unknown category")
			}
			return in, err
		}
	}
	return in, nil
}
