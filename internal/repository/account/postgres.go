package account

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, a domain.Account) (*domain.Account, error) {
	role := a.Role
	if role == "" {
		role = domain.RoleUser
	}
	const q = `
INSERT INTO accounts (username, password_hash, role)
VALUES ($1, $2, $3)
RETURNING principal::text, username, password_hash, role, created_at
`
	out, err := scanAccount(r.pool.QueryRow(ctx, q, strings.ToLower(a.Username), a.PasswordHash, string(role)))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("account repo: create username=%s error=%v", a.Username, err)
		return nil, err
	}
	r.logger.Printf("account repo: created principal=%s role=%s", out.Principal, out.Role)
	return out, nil
}

func (r *postgresRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	const q = `
SELECT principal::text, username, password_hash, role, created_at
FROM accounts
WHERE username = $1
`
	return r.get(ctx, q, strings.ToLower(strings.TrimSpace(username)))
}

func (r *postgresRepo) GetByPrincipal(ctx context.Context, principal domain.Principal) (*domain.Account, error) {
	const q = `
SELECT principal::text, username, password_hash, role, created_at
FROM accounts
WHERE principal = $1::uuid
`
	return r.get(ctx, q, string(principal))
}

func (r *postgresRepo) SetRole(ctx context.Context, principal domain.Principal, role domain.Role) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE accounts SET role = $1 WHERE principal = $2::uuid`, string(role), string(principal))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("account repo: principal=%s role=%s", principal, role)
	return nil
}

func (r *postgresRepo) get(ctx context.Context, q string, arg string) (*domain.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
			// malformed uuid
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a         domain.Account
		principal string
		role      string
	)
	if err := row.Scan(&principal, &a.Username, &a.PasswordHash, &role, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Principal = domain.Principal(principal)
	a.Role = domain.Role(role)
	return &a, nil
}
