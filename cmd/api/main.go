package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/migrate"
	accountrepo "storefront/internal/repository/account"
	blobrepo "storefront/internal/repository/blob"
	cartrepo "storefront/internal/repository/cart"
	categoryrepo "storefront/internal/repository/category"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	profilerepo "storefront/internal/repository/profile"
	reviewrepo "storefront/internal/repository/review"
	tokenrepo "storefront/internal/repository/token"
	accesssvc "storefront/internal/service/access"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	mediasvc "storefront/internal/service/media"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	profilesvc "storefront/internal/service/profile"
	reviewsvc "storefront/internal/service/review"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	if err := migrate.Apply(ctx, dbpool, logger); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	accountRepo := accountrepo.NewPostgres(dbpool, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	categoryRepo := categoryrepo.NewPostgres(dbpool)

	srv, err := httpserver.New(cfg.BackendAddr, logger, dbpool, httpserver.Deps{
		AuthSvc:     authsvc.New(accountRepo, tokenrepo.NewPostgres(dbpool), cfg.AccessTokenTTL, logger),
		ProductSvc:  productsvc.New(productRepo, categoryRepo),
		CategorySvc: categorysvc.New(categoryRepo),
		CartSvc:     cartsvc.New(cartrepo.NewPostgres(dbpool), productRepo),
		OrderSvc:    ordersvc.New(orderrepo.NewPostgres(dbpool, logger), logger),
		ReviewSvc:   reviewsvc.New(reviewrepo.NewPostgres(dbpool), productRepo),
		ProfileSvc:  profilesvc.New(profilerepo.NewPostgres(dbpool)),
		AccessSvc:   accesssvc.New(accountRepo),
		MediaSvc:    mediasvc.New(blobrepo.NewPostgres(dbpool), cfg.FileURLHost),
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
