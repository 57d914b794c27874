package review

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
)

type memoryRepo struct {
	reviews []domain.Review
}

func (r *memoryRepo) ListByProduct(_ context.Context, productID uint64) ([]domain.Review, error) {
	var out []domain.Review
	for _, rv := range r.reviews {
		if rv.ProductID == productID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (r *memoryRepo) Add(_ context.Context, rv domain.Review) error {
	r.reviews = append(r.reviews, rv)
	return nil
}

type products map[uint64]bool

func (p products) GetByID(_ context.Context, id uint64) (*domain.Product, error) {
	if !p[id] {
		return nil, domain.ErrNotFound
	}
	return &domain.Product{ID: id}, nil
}

func TestAddValidation(t *testing.T) {
	repo := &memoryRepo{}
	svc := New(repo, products{1: true})
	ctx := context.Background()

	if err := svc.Add(ctx, domain.Review{ProductID: 1, Rating: 0, Comment: "ok"}); !domain.IsValidation(err) {
		t.Fatalf("expected rating validation, got %v", err)
	}
	if err := svc.Add(ctx, domain.Review{ProductID: 1, Rating: 6, Comment: "ok"}); !domain.IsValidation(err) {
		t.Fatalf("expected rating validation, got %v", err)
	}
	if err := svc.Add(ctx, domain.Review{ProductID: 1, Rating: 4, Comment: "  "}); !domain.IsValidation(err) {
		t.Fatalf("expected comment validation, got %v", err)
	}
	if err := svc.Add(ctx, domain.Review{ProductID: 2, Rating: 4, Comment: "ok"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(repo.reviews) != 0 {
		t.Fatalf("expected no stored reviews, got %d", len(repo.reviews))
	}
}

func TestAddDefaultsReviewer(t *testing.T) {
	repo := &memoryRepo{}
	svc := New(repo, products{1: true})
	if err := svc.Add(context.Background(), domain.Review{ProductID: 1, Rating: 5, Comment: "great"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Reviewer != AnonymousReviewer {
		t.Fatalf("unexpected reviews %+v", got)
	}
}
