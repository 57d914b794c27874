package product

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

const selectColumns = `id, name, description, category_id, price, rating, image_id, image_url, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	q := `SELECT ` + selectColumns + ` FROM products ORDER BY id ASC`
	result, err := r.query(ctx, q)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	r.logger.Printf("product repo: list count=%d", len(result))
	return result, nil
}

func (r *postgresRepo) Search(ctx context.Context, text string) ([]domain.Product, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []domain.Product{}, nil
	}
	q := `SELECT ` + selectColumns + `
FROM products
WHERE strpos(lower(name), lower($1)) > 0 OR strpos(lower(description), lower($1)) > 0
ORDER BY id ASC`
	result, err := r.query(ctx, q, text)
	if err != nil {
		r.logger.Printf("product repo: search text=%q error=%v", text, err)
		return nil, err
	}
	r.logger.Printf("product repo: search text=%q count=%d", text, len(result))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uint64) (*domain.Product, error) {
	q := `SELECT ` + selectColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, int64(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("product repo: get id=%d not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%d error=%v", id, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	q := `
INSERT INTO products (name, description, category_id, price, image_id, image_url)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + selectColumns
	p, err := scanProduct(r.pool.QueryRow(ctx, q, in.Name, in.Description, int64(in.CategoryID), in.Price, in.Image.ID, in.Image.URL))
	if err != nil {
		r.logger.Printf("product repo: create name=%q error=%v", in.Name, err)
		return nil, mapConstraint(err)
	}
	r.logger.Printf("product repo: created id=%d name=%q", p.ID, p.Name)
	return p, nil
}

func (r *postgresRepo) Update(ctx context.Context, id uint64, in domain.ProductInput) (*domain.Product, error) {
	q := `
UPDATE products
SET name = $2,
    description = $3,
    category_id = $4,
    price = $5,
    image_id = COALESCE(NULLIF($6, ''), image_id),
    image_url = COALESCE(NULLIF($7, ''), image_url)
WHERE id = $1
RETURNING ` + selectColumns
	p, err := scanProduct(r.pool.QueryRow(ctx, q, int64(id), in.Name, in.Description, int64(in.CategoryID), in.Price, in.Image.ID, in.Image.URL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: update id=%d error=%v", id, err)
		return nil, mapConstraint(err)
	}
	r.logger.Printf("product repo: updated id=%d", id)
	return p, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id uint64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, int64(id))
	if err != nil {
		r.logger.Printf("product repo: delete id=%d error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("product repo: deleted id=%d", id)
	return nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...interface{}) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p          domain.Product
		id         int64
		categoryID int64
	)
	if err := row.Scan(&id, &p.Name, &p.Description, &categoryID, &p.Price, &p.Rating, &p.Image.ID, &p.Image.URL, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.ID = uint64(id)
	p.CategoryID = uint64(categoryID)
	return &p, nil
}

// mapConstraint turns a foreign key violation on category_id into a validation error.
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return domain.Invalid("category", "unknown category")
		case "23514":
			return domain.Invalid("price", "must not be negative")
		}
	}
	return err
}
