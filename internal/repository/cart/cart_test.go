package cart

import (
	"context"
	"errors"
	"os"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/migrate"
	"storefront/internal/repository/account"
	"storefront/internal/repository/category"
	"storefront/internal/repository/product"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgres_AddAccumulatesAndSetOverwrites(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	acc, err := account.NewPostgres(pool, nil).Create(ctx, domain.Account{Username: "asha", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	cat, err := category.NewPostgres(pool).Create(ctx, "Kitchen")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	p, err := product.NewPostgres(pool, nil).Create(ctx, domain.ProductInput{Name: "Kettle", Price: 5, CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	repo := NewPostgres(pool)
	if err := repo.Add(ctx, acc.Principal, p.ID, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Add(ctx, acc.Principal, p.ID, 3); err != nil {
		t.Fatalf("Add again: %v", err)
	}
	items, err := repo.List(ctx, acc.Principal)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 5 {
		t.Fatalf("expected accumulated quantity 5, got %+v", items)
	}

	if err := repo.Set(ctx, acc.Principal, p.ID, 1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	items, _ = repo.List(ctx, acc.Principal)
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("expected quantity 1, got %+v", items)
	}

	if err := repo.Remove(ctx, acc.Principal, p.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := repo.Remove(ctx, acc.Principal, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
	if err := repo.Set(ctx, acc.Principal, p.ID, 4); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on set of missing line, got %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE reviews, order_items, orders, cart_items, products, categories, profiles, tokens, accounts, blobs RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
