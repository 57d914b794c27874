package review

import (
	"context"
	"errors"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) ListByProduct(ctx context.Context, productID uint64) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, `
SELECT product_id, reviewer, rating, comment
FROM reviews
WHERE product_id = $1
ORDER BY created_at ASC, id ASC
`, int64(productID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		var (
			rv     domain.Review
			pid    int64
			rating int16
		)
		if err := rows.Scan(&pid, &rv.Reviewer, &rating, &rv.Comment); err != nil {
			return nil, err
		}
		rv.ProductID = uint64(pid)
		rv.Rating = uint8(rating)
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Add(ctx context.Context, rv domain.Review) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO reviews (product_id, reviewer, rating, comment)
VALUES ($1, $2, $3, $4)
`, int64(rv.ProductID), rv.Reviewer, int16(rv.Rating), rv.Comment); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ErrNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx, `
UPDATE products
SET rating = COALESCE((SELECT AVG(rating)::double precision FROM reviews WHERE product_id = $1), 0)
WHERE id = $1
`, int64(rv.ProductID)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
