package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
)

// memoryRepo is a lightweight in-memory account repository for tests.
type memoryRepo struct {
	byUsername map[string]domain.Account
}

type memoryTokenRepo struct {
	tokens map[string]tokenrepo.Token
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byUsername: make(map[string]domain.Account)}
}

func newMemoryTokenRepo() *memoryTokenRepo {
	return &memoryTokenRepo{tokens: make(map[string]tokenrepo.Token)}
}

func (r *memoryTokenRepo) Create(_ context.Context, token tokenrepo.Token) error {
	if _, exists := r.tokens[token.Token]; exists {
		return domain.ErrAlreadyExists
	}
	r.tokens[token.Token] = token
	return nil
}

func (r *memoryTokenRepo) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := t
	return &clone, nil
}

func (r *memoryTokenRepo) Delete(_ context.Context, token string) error {
	if _, ok := r.tokens[token]; !ok {
		return domain.ErrNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *memoryRepo) Create(_ context.Context, a domain.Account) (*domain.Account, error) {
	if _, exists := r.byUsername[a.Username]; exists {
		return nil, domain.ErrAlreadyExists
	}
	clone := a
	if clone.Principal == "" {
		clone.Principal = domain.Principal("p-" + a.Username)
	}
	r.byUsername[clone.Username] = clone
	return &clone, nil
}

func (r *memoryRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	if a, ok := r.byUsername[username]; ok {
		clone := a
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) GetByPrincipal(_ context.Context, principal domain.Principal) (*domain.Account, error) {
	for _, a := range r.byUsername {
		if a.Principal == principal {
			clone := a
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) SetRole(_ context.Context, principal domain.Principal, role domain.Role) error {
	for k, a := range r.byUsername {
		if a.Principal == principal {
			a.Role = role
			r.byUsername[k] = a
			return nil
		}
	}
	return domain.ErrNotFound
}

func TestSignupAndLogin_SucceedsWithTrimmedPassword(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), 0, nil)
	ctx := context.Background()

	acc, err := svc.Signup(ctx, SignupInput{Username: " Alice ", Password: " Abcdefg1 "})
	if err != nil {
		t.Fatalf("signup returned error: %v", err)
	}
	if acc == nil || acc.Username != "alice" || acc.Role != domain.RoleUser {
		t.Fatalf("unexpected account %+v", acc)
	}

	_, token, err := svc.Login(ctx, "alice", "Abcdefg1")
	if err != nil {
		t.Fatalf("login failed with trimmed password: %v", err)
	}
	if token == "" {
		t.Fatalf("expected access token")
	}

	got, err := svc.LookupByToken(ctx, token)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Principal != acc.Principal {
		t.Fatalf("expected principal %s, got %s", acc.Principal, got.Principal)
	}
}

func TestSignup_RequiresUsername(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), 0, nil)
	_, err := svc.Signup(context.Background(), SignupInput{Username: "  ", Password: "Abcdefg1"})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidatePassword_FailsOnWeakValues(t *testing.T) {
	cases := []struct {
		name string
		pass string
	}{
		{"too short", "Abc1"},
		{"no upper", "abcdefg1"},
		{"no lower", "ABCDEFG1"},
		{"no digit", "Abcdefgh"},
	}
	for _, tc := range cases {
		if err := validatePassword(tc.pass, 8); err == nil {
			t.Fatalf("expected error for case %s", tc.name)
		}
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), 0, nil)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Username: "user", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, _, err := svc.Login(ctx, "user", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "missing", "Abcdefg1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for missing user, got %v", err)
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	tokens := newMemoryTokenRepo()
	svc := New(newMemoryRepo(), tokens, 0, nil)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Username: "user", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, token, err := svc.Login(ctx, "user", "Abcdefg1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.LookupByToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
	}
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("second logout should be a no-op, got %v", err)
	}
}

func TestLookupByToken_ExpiredTokenIsDeleted(t *testing.T) {
	tokens := newMemoryTokenRepo()
	svc := New(newMemoryRepo(), tokens, time.Hour, nil)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Username: "user", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, token, err := svc.Login(ctx, "user", "Abcdefg1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	svc.tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.LookupByToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, ok := tokens.tokens[token]; ok {
		t.Fatalf("expected expired token to be removed")
	}
}
