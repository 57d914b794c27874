package review

import (
	"context"
	"strings"

	"storefront/internal/domain"
	reviewrepo "storefront/internal/repository/review"
)

// AnonymousReviewer is stored when a review arrives without a reviewer name.
const AnonymousReviewer = "Anonymous"

type Service struct {
	repo     reviewrepo.Repository
	products productLookup
}

type productLookup interface {
	GetByID(ctx context.Context, id uint64) (*domain.Product, error)
}

func New(repo reviewrepo.Repository, products productLookup) *Service {
	return &Service{repo: repo, products: products}
}

func (s *Service) List(ctx context.Context, productID uint64) ([]domain.Review, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListByProduct(ctx, productID)
}

func (s *Service) Add(ctx context.Context, r domain.Review) error {
	r.Reviewer = strings.TrimSpace(r.Reviewer)
	r.Comment = strings.TrimSpace(r.Comment)
	if r.Rating < 1 || r.Rating > 5 {
		return domain.Invalid("rating", "rating must be between 1 and 5")
	}
	if r.Comment == "" {
		return domain.Invalid("comment", "comment required")
	}
	if r.Reviewer == "" {
		r.Reviewer = AnonymousReviewer
	}
	if _, err := s.products.GetByID(ctx, r.ProductID); err != nil {
		return err
	}
	return s.repo.Add(ctx, r)
}
