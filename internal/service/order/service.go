package order

import (
	"context"
	"io"
	"log"
	"strings"

	"storefront/internal/domain"
	orderrepo "storefront/internal/repository/order"
)

type Service struct {
	repo   orderrepo.Repository
	logger *log.Logger
}

func New(repo orderrepo.Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, logger: logger}
}

// Place validates the checkout form and turns the caller's cart into an order.
func (s *Service) Place(ctx context.Context, principal domain.Principal, req domain.OrderRequest) (*domain.Order, error) {
	if principal.IsAnonymous() {
		return nil, domain.ErrUnauthorized
	}
	req, err := NormalizeRequest(req)
	if err != nil {
		return nil, err
	}
	o, err := s.repo.Place(ctx, principal, req)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order placed id=%d principal=%s total=%.2f items=%d", o.ID, principal, o.Total, len(o.Items))
	return o, nil
}

func (s *Service) History(ctx context.Context, principal domain.Principal) ([]domain.Order, error) {
	if principal.IsAnonymous() {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListByPrincipal(ctx, principal)
}

func (s *Service) All(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListAll(ctx)
}

// NormalizeRequest trims the checkout fields, defaults the payment method to
// cash on delivery and rejects missing fields.
func NormalizeRequest(req domain.OrderRequest) (domain.OrderRequest, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.Address = strings.TrimSpace(req.Address)
	req.Phone = strings.TrimSpace(req.Phone)
	req.PaymentMethod = strings.ToUpper(strings.TrimSpace(req.PaymentMethod))
	switch {
	case req.CustomerName == "":
		return req, domain.Invalid("customerName", "name required")
	case req.Phone == "":
		return req, domain.Invalid("phone", "phone required")
	case req.Address == "":
		return req, domain.Invalid("address", "address required")
	}
	switch req.PaymentMethod {
	case "":
		req.PaymentMethod = domain.PaymentCOD
	case domain.PaymentCOD, domain.PaymentUPI:
	default:
		return req, domain.Invalid("paymentMethod", "payment method must be COD or UPI")
	}
	return req, nil
}
