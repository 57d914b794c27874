package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/rpc"
)

// Credentials are what a visitor presents to log in.
type Credentials struct {
	Username string
	Password string
}

// Identity is an authenticated principal and the token that proves it.
type Identity struct {
	Principal domain.Principal
	Username  string
	Token     string
	ExpiresAt time.Time
}

// Provider authenticates credentials and ends authenticated sessions.
type Provider interface {
	Login(ctx context.Context, creds Credentials) (Identity, error)
	Logout(ctx context.Context, id Identity) error
}

// RemoteProvider authenticates against the backend's token endpoint.
type RemoteProvider struct {
	auth rpc.Authenticator
	now  func() time.Time
}

func NewRemoteProvider(auth rpc.Authenticator) *RemoteProvider {
	return &RemoteProvider{auth: auth, now: time.Now}
}

func (p *RemoteProvider) Login(ctx context.Context, creds Credentials) (Identity, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" {
		return Identity{}, domain.Invalid("username", "is required")
	}
	if creds.Password == "" {
		return Identity{}, domain.Invalid("password", "is required")
	}
	tok, err := p.auth.IssueToken(ctx, username, creds.Password)
	if err != nil {
		if errors.Is(err, rpc.ErrInvalidCredentials) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, fmt.Errorf("issue token: %w", err)
	}
	return Identity{
		Principal: tok.Principal,
		Username:  username,
		Token:     tok.AccessToken,
		ExpiresAt: p.now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}, nil
}

func (p *RemoteProvider) Logout(ctx context.Context, id Identity) error {
	if id.Token == "" {
		return nil
	}
	if err := p.auth.RevokeToken(ctx, id.Token); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
