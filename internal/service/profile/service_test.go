package profile

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"

	"github.com/samber/mo"
)

type memoryRepo struct {
	profiles map[domain.Principal]domain.UserProfile
	gets     int
}

func (r *memoryRepo) Get(_ context.Context, principal domain.Principal) (mo.Option[domain.UserProfile], error) {
	r.gets++
	p, ok := r.profiles[principal]
	return mo.TupleToOption(p, ok), nil
}

func (r *memoryRepo) Save(_ context.Context, principal domain.Principal, p domain.UserProfile) error {
	r.profiles[principal] = p
	return nil
}

func TestGetAnonymousIsAbsent(t *testing.T) {
	repo := &memoryRepo{profiles: map[domain.Principal]domain.UserProfile{}}
	got, err := New(repo).Get(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsPresent() || repo.gets != 0 {
		t.Fatalf("expected absent profile without repository call")
	}
}

func TestSaveThenGet(t *testing.T) {
	repo := &memoryRepo{profiles: map[domain.Principal]domain.UserProfile{}}
	svc := New(repo)
	ctx := context.Background()

	if err := svc.Save(ctx, "u1", domain.UserProfile{Name: "  "}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.Save(ctx, "", domain.UserProfile{Name: "Ann"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := svc.Save(ctx, "u1", domain.UserProfile{Name: " Ann "}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p, ok := got.Get(); !ok || p.Name != "Ann" {
		t.Fatalf("unexpected profile %+v", got)
	}
}
