package order

import (
	"context"
	"io"
	"log"
	"time"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

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

func (r *postgresRepo) Place(ctx context.Context, principal domain.Principal, req domain.OrderRequest) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
SELECT ci.product_id, ci.quantity, p.price
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.principal = $1::uuid
ORDER BY ci.created_at ASC, ci.product_id ASC
FOR UPDATE OF ci
`, string(principal))
	if err != nil {
		return nil, err
	}
	var items []domain.OrderItem
	total := decimal.Zero
	for rows.Next() {
		var productID, quantity int64
		var price float64
		if err := rows.Scan(&productID, &quantity, &price); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, domain.OrderItem{ProductID: uint64(productID), Quantity: uint64(quantity), Price: price})
		total = total.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(quantity)))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	order := domain.Order{
		Customer:      principal,
		CustomerName:  req.CustomerName,
		Address:       req.Address,
		Phone:         req.Phone,
		PaymentMethod: req.PaymentMethod,
		Items:         items,
		Total:         total.Round(2).InexactFloat64(),
	}
	var (
		id        int64
		createdAt time.Time
	)
	if err := tx.QueryRow(ctx, `
INSERT INTO orders (principal, customer_name, address, phone, payment_method, total)
VALUES ($1::uuid, $2, $3, $4, $5, $6)
RETURNING id, created_at
`, string(principal), order.CustomerName, order.Address, order.Phone, order.PaymentMethod, order.Total).Scan(&id, &createdAt); err != nil {
		return nil, err
	}
	order.ID = uint64(id)
	order.Timestamp = createdAt.UnixNano()

	for i, item := range items {
		if _, err := tx.Exec(ctx, `
INSERT INTO order_items (order_id, product_id, quantity, price, position)
VALUES ($1, $2, $3, $4, $5)
`, id, int64(item.ProductID), int64(item.Quantity), item.Price, i); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE principal = $1::uuid`, string(principal)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: placed id=%d principal=%s items=%d total=%.2f", order.ID, principal, len(items), order.Total)
	return &order, nil
}

func (r *postgresRepo) ListByPrincipal(ctx context.Context, principal domain.Principal) ([]domain.Order, error) {
	return r.list(ctx, `WHERE o.principal = $1::uuid`, string(principal))
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, ``)
}

func (r *postgresRepo) list(ctx context.Context, where string, args ...interface{}) ([]domain.Order, error) {
	q := `
SELECT o.id, o.principal::text, o.customer_name, o.address, o.phone, o.payment_method, o.total, o.created_at
FROM orders o
` + where + `
ORDER BY o.created_at DESC, o.id DESC
`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	orders := []domain.Order{}
	index := map[uint64]int{}
	for rows.Next() {
		var (
			o         domain.Order
			id        int64
			principal string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &principal, &o.CustomerName, &o.Address, &o.Phone, &o.PaymentMethod, &o.Total, &createdAt); err != nil {
			rows.Close()
			return nil, err
		}
		o.ID = uint64(id)
		o.Customer = domain.Principal(principal)
		o.Timestamp = createdAt.UnixNano()
		o.Items = []domain.OrderItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, int64(o.ID))
	}
	itemRows, err := r.pool.Query(ctx, `
SELECT order_id, product_id, quantity, price
FROM order_items
WHERE order_id = ANY($1)
ORDER BY order_id, position
`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var orderID, productID, quantity int64
		var price float64
		if err := itemRows.Scan(&orderID, &productID, &quantity, &price); err != nil {
			return nil, err
		}
		pos := index[uint64(orderID)]
		orders[pos].Items = append(orders[pos].Items, domain.OrderItem{ProductID: uint64(productID), Quantity: uint64(quantity), Price: price})
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
