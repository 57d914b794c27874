package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"storefront/internal/domain"
	accountrepo "storefront/internal/repository/account"
	tokenrepo "storefront/internal/repository/token"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when username/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

// Service handles account signup, login and bearer token resolution.
type Service struct {
	repo        accountrepo.Repository
	tokens      *tokenManager
	accessTTL   time.Duration
	passwordMin int
	logger      *log.Logger
}

// New creates a Service. A zero accessTTL falls back to 48 hours.
func New(repo accountrepo.Repository, tokens tokenrepo.Repository, accessTTL time.Duration, logger *log.Logger) *Service {
	if accessTTL <= 0 {
		accessTTL = 48 * time.Hour
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		accessTTL:   accessTTL,
		passwordMin: 8,
		logger:      logger,
	}
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     domain.Role `json:"-"`
}

// Signup registers a new account. Accounts are created with the user role
// unless the caller sets Role explicitly (seeding).
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Account, error) {
	username := strings.TrimSpace(strings.ToLower(in.Username))
	if username == "" {
		return nil, domain.Invalid("username", "username required")
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	acc, err := s.repo.Create(ctx, domain.Account{
		Username:     username,
		PasswordHash: string(hashed),
		Role:         role,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("signup principal=%s", acc.Principal)
	return acc, nil
}

// Login validates credentials and returns an access token plus the account.
func (s *Service) Login(ctx context.Context, username, password string) (*domain.Account, string, error) {
	password = strings.TrimSpace(password)
	acc, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	access, err := s.tokens.Issue(ctx, acc.Principal, "access", s.accessTTL)
	if err != nil {
		return nil, "", err
	}
	return acc, access, nil
}

// LookupByToken returns the account bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Account, error) {
	meta, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	acc, err := s.repo.GetByPrincipal(ctx, meta.Principal)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return acc, nil
}

// Logout revokes token. Revoking an unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return domain.Invalid("password", fmt.Sprintf("password must be at least %d characters", min))
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return domain.Invalid("password", "password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
