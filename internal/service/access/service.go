package access

import (
	"context"
	"errors"

	"storefront/internal/domain"
	accountrepo "storefront/internal/repository/account"
)

// Service derives caller roles from stored accounts.
type Service struct {
	accounts accountrepo.Repository
}

func New(accounts accountrepo.Repository) *Service {
	return &Service{accounts: accounts}
}

// Role returns the caller's role. Anonymous and unknown principals are guests.
func (s *Service) Role(ctx context.Context, principal domain.Principal) (domain.Role, error) {
	if principal.IsAnonymous() {
		return domain.RoleGuest, nil
	}
	acc, err := s.accounts.GetByPrincipal(ctx, principal)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RoleGuest, nil
		}
		return "", err
	}
	return acc.Role, nil
}

func (s *Service) IsAdmin(ctx context.Context, principal domain.Principal) (bool, error) {
	role, err := s.Role(ctx, principal)
	if err != nil {
		return false, err
	}
	return role == domain.RoleAdmin, nil
}

// Assign changes the role of target. Only admins may assign roles.
func (s *Service) Assign(ctx context.Context, caller, target domain.Principal, role domain.Role) error {
	if caller.IsAnonymous() {
		return domain.ErrUnauthorized
	}
	ok, err := s.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	if _, err := domain.ParseRole(string(role)); err != nil {
		return err
	}
	return s.accounts.SetRole(ctx, target, role)
}
