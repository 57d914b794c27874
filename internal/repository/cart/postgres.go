package cart

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

func (r *postgresRepo) List(ctx context.Context, principal domain.Principal) ([]domain.CartItem, error) {
	const q = `
SELECT product_id, quantity
FROM cart_items
WHERE principal = $1::uuid
ORDER BY created_at ASC, product_id ASC
`
	rows, err := r.pool.Query(ctx, q, string(principal))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var productID, quantity int64
		if err := rows.Scan(&productID, &quantity); err != nil {
			return nil, err
		}
		items = append(items, domain.CartItem{ProductID: uint64(productID), Quantity: uint64(quantity)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *postgresRepo) Add(ctx context.Context, principal domain.Principal, productID, quantity uint64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var existing int64
	err = tx.QueryRow(ctx, `
SELECT quantity
FROM cart_items
WHERE principal = $1::uuid AND product_id = $2
FOR UPDATE
`, string(principal), int64(productID)).Scan(&existing)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if err == nil {
		if _, err := tx.Exec(ctx, `
UPDATE cart_items
SET quantity = $3
WHERE principal = $1::uuid AND product_id = $2
`, string(principal), int64(productID), existing+int64(quantity)); err != nil {
			return err
		}
	} else {
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_items (principal, product_id, quantity)
VALUES ($1::uuid, $2, $3)
`, string(principal), int64(productID), int64(quantity)); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return domain.ErrNotFound
			}
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) Set(ctx context.Context, principal domain.Principal, productID, quantity uint64) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE cart_items
SET quantity = $3
WHERE principal = $1::uuid AND product_id = $2
`, string(principal), int64(productID), int64(quantity))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Remove(ctx context.Context, principal domain.Principal, productID uint64) error {
	cmd, err := r.pool.Exec(ctx, `
DELETE FROM cart_items
WHERE principal = $1::uuid AND product_id = $2
`, string(principal), int64(productID))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Clear(ctx context.Context, principal domain.Principal) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE principal = $1::uuid`, string(principal))
	return err
}
