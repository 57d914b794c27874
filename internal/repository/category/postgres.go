package category

import (
	"context"
	"errors"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT id, name, created_at
FROM categories
ORDER BY name ASC, id ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uint64) (*domain.Category, error) {
	return r.get(ctx, `SELECT id, name, created_at FROM categories WHERE id = $1`, int64(id))
}

func (r *postgresRepo) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	return r.get(ctx, `SELECT id, name, created_at FROM categories WHERE lower(name) = lower($1) ORDER BY id LIMIT 1`, name)
}

func (r *postgresRepo) Create(ctx context.Context, name string) (*domain.Category, error) {
	const q = `
INSERT INTO categories (name)
VALUES ($1)
RETURNING id, name, created_at
`
	return scanCategory(r.pool.QueryRow(ctx, q, name))
}

func (r *postgresRepo) get(ctx context.Context, q string, arg interface{}) (*domain.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		c  domain.Category
		id int64
	)
	if err := row.Scan(&id, &c.Name, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ID = uint64(id)
	return &c, nil
}
