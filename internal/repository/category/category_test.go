package category

import (
	"context"
	"errors"
	"os"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgres_CreateAndList(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool)
	for _, name := range []string{"Kitchen", "Gadgets"} {
		if _, err := repo.Create(ctx, name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Gadgets" || list[1].Name != "Kitchen" {
		t.Fatalf("unexpected list %+v", list)
	}

	byName, err := repo.GetByName(ctx, "kitchen")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if byName.ID != 1 {
		t.Fatalf("expected first created category, got %+v", byName)
	}
	if _, err := repo.GetByID(ctx, 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
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
