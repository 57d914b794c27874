package category

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id uint64) (*domain.Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("name", "category name required")
	}
	return s.repo.Create(ctx, name)
}

// Ensure returns the category called name, creating it when missing.
func (s *Service) Ensure(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("name", "category name required")
	}
	c, err := s.repo.GetByName(ctx, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.repo.Create(ctx, name)
}
