package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log"

	"storefront/internal/domain"
	"storefront/internal/importer"
	authsvc "storefront/internal/service/auth"
)

//go:embed demo_products.csv
var demoProducts []byte

// Accounts is the subset of account operations seeding needs.
type Accounts interface {
	Signup(ctx context.Context, in authsvc.SignupInput) (*domain.Account, error)
}

// RoleSetter promotes an existing account.
type RoleSetter interface {
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	SetRole(ctx context.Context, principal domain.Principal, role domain.Role) error
}

type Options struct {
	AdminUsername string
	AdminPassword string
}

// Apply creates the admin account and the demo catalog. Running it again
// re-promotes the admin and updates demo products in place.
func Apply(ctx context.Context, accounts Accounts, roles RoleSetter, catalog importer.Catalog, opts Options, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	principal, err := ensureAdmin(ctx, accounts, roles, opts)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	logger.Printf("admin principal=%s", principal)

	n, err := importer.NewCSVImporter(bytes.NewReader(demoProducts), catalog).Run(ctx)
	if err != nil {
		return fmt.Errorf("import demo products: %w", err)
	}
	logger.Printf("demo products=%d", n)
	return nil
}

func ensureAdmin(ctx context.Context, accounts Accounts, roles RoleSetter, opts Options) (domain.Principal, error) {
	acc, err := accounts.Signup(ctx, authsvc.SignupInput{
		Username: opts.AdminUsername,
		Password: opts.AdminPassword,
		Role:     domain.RoleAdmin,
	})
	if err == nil {
		return acc.Principal, nil
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		return "", err
	}
	acc, err = roles.GetByUsername(ctx, opts.AdminUsername)
	if err != nil {
		return "", err
	}
	if acc.Role != domain.RoleAdmin {
		if err := roles.SetRole(ctx, acc.Principal, domain.RoleAdmin); err != nil {
			return "", err
		}
	}
	return acc.Principal, nil
}
