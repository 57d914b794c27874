package profile

import (
	"context"
	"errors"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/mo"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, principal domain.Principal) (mo.Option[domain.UserProfile], error) {
	var p domain.UserProfile
	err := r.pool.QueryRow(ctx, `SELECT name FROM profiles WHERE principal = $1::uuid`, string(principal)).Scan(&p.Name)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, pgx.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == "22P02") {
			return mo.None[domain.UserProfile](), nil
		}
		return mo.None[domain.UserProfile](), err
	}
	return mo.Some(p), nil
}

func (r *postgresRepo) Save(ctx context.Context, principal domain.Principal, p domain.UserProfile) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO profiles (principal, name)
VALUES ($1::uuid, $2)
ON CONFLICT (principal) DO UPDATE
SET name = EXCLUDED.name,
    updated_at = now()
`, string(principal), p.Name)
	return err
}
