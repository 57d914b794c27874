package main

import (
	"context"
	"flag"
	"log"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/importer"
	"storefront/internal/migrate"
	accountrepo "storefront/internal/repository/account"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	"storefront/internal/seed"
	authsvc "storefront/internal/service/auth"
	categorysvc "storefront/internal/service/category"
	productsvc "storefront/internal/service/product"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var opts seed.Options
	flag.StringVar(&opts.AdminUsername, "admin-user", envOr("SEED_ADMIN_USERNAME", "admin"), "Username of the admin account")
	flag.StringVar(&opts.AdminPassword, "admin-password", envOr("SEED_ADMIN_PASSWORD", "Admin1234"), "Password of the admin account")
	flag.Parse()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	accounts := accountrepo.NewPostgres(pool, logger)
	categoryRepo := categoryrepo.NewPostgres(pool)
	catalog := importer.NewServiceCatalog(
		categorysvc.New(categoryRepo),
		productsvc.New(productrepo.NewPostgres(pool, logger), categoryRepo),
	)
	auth := authsvc.New(accounts, tokenrepo.NewPostgres(pool), cfg.AccessTokenTTL, logger)

	if err := seed.Apply(ctx, auth, accounts, catalog, opts, logger); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Println("seed applied")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
