package profile

import (
	"context"
	"strings"

	"storefront/internal/domain"
	profilerepo "storefront/internal/repository/profile"

	"github.com/samber/mo"
)

type Service struct {
	repo profilerepo.Repository
}

func New(repo profilerepo.Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the profile of principal. Anonymous callers never have one.
func (s *Service) Get(ctx context.Context, principal domain.Principal) (mo.Option[domain.UserProfile], error) {
	if principal.IsAnonymous() {
		return mo.None[domain.UserProfile](), nil
	}
	return s.repo.Get(ctx, principal)
}

func (s *Service) Save(ctx context.Context, principal domain.Principal, p domain.UserProfile) error {
	if principal.IsAnonymous() {
		return domain.ErrUnauthorized
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return domain.Invalid("name", "name required")
	}
	return s.repo.Save(ctx, principal, p)
}
