package order

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
)

type stubRepo struct {
	placed    domain.OrderRequest
	placeErr  error
	placeCall int
}

func (s *stubRepo) Place(_ context.Context, principal domain.Principal, req domain.OrderRequest) (*domain.Order, error) {
	s.placeCall++
	s.placed = req
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return &domain.Order{ID: 1, Customer: principal, CustomerName: req.CustomerName, Total: 19.98}, nil
}

func (s *stubRepo) ListByPrincipal(context.Context, domain.Principal) ([]domain.Order, error) {
	return []domain.Order{{ID: 1}}, nil
}

func (s *stubRepo) ListAll(context.Context) ([]domain.Order, error) {
	return nil, nil
}

func TestPlaceRequiresIdentity(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo, nil)
	_, err := svc.Place(context.Background(), "", domain.OrderRequest{CustomerName: "a", Phone: "1", Address: "x"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if repo.placeCall != 0 {
		t.Fatalf("repository must not be called")
	}
}

func TestPlaceValidatesForm(t *testing.T) {
	cases := []struct {
		name  string
		req   domain.OrderRequest
		field string
	}{
		{"name", domain.OrderRequest{Phone: "1", Address: "x"}, "customerName"},
		{"phone", domain.OrderRequest{CustomerName: "a", Address: "x"}, "phone"},
		{"address", domain.OrderRequest{CustomerName: "a", Phone: "1", Address: "   "}, "address"},
		{"payment", domain.OrderRequest{CustomerName: "a", Phone: "1", Address: "x", PaymentMethod: "card"}, "paymentMethod"},
	}
	for _, tc := range cases {
		repo := &stubRepo{}
		_, err := New(repo, nil).Place(context.Background(), "u1", tc.req)
		var verr *domain.ValidationError
		if !errors.As(err, &verr) || verr.Field != tc.field {
			t.Fatalf("%s: expected validation error on %s, got %v", tc.name, tc.field, err)
		}
		if repo.placeCall != 0 {
			t.Fatalf("%s: repository must not be called", tc.name)
		}
	}
}

func TestPlaceDefaultsPaymentMethod(t *testing.T) {
	repo := &stubRepo{}
	o, err := New(repo, nil).Place(context.Background(), "u1", domain.OrderRequest{CustomerName: " Ann ", Phone: "1", Address: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.placed.PaymentMethod != domain.PaymentCOD || repo.placed.CustomerName != "Ann" {
		t.Fatalf("unexpected normalized request %+v", repo.placed)
	}
	if o.Customer != "u1" {
		t.Fatalf("unexpected order %+v", o)
	}
}

func TestPlacePropagatesEmptyCart(t *testing.T) {
	repo := &stubRepo{placeErr: domain.ErrEmptyCart}
	_, err := New(repo, nil).Place(context.Background(), "u1", domain.OrderRequest{CustomerName: "a", Phone: "1", Address: "x", PaymentMethod: "upi"})
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected empty cart, got %v", err)
	}
	if repo.placed.PaymentMethod != domain.PaymentUPI {
		t.Fatalf("expected UPI, got %q", repo.placed.PaymentMethod)
	}
}
