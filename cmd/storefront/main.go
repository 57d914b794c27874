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
	"storefront/internal/identity"
	"storefront/internal/rpc"
	"storefront/internal/storefront"
	"storefront/internal/views"
	"storefront/internal/webserver"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[storefront] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	base := rpc.NewHTTPClient(cfg.BackendURL, rpc.WithLogger(logger))
	registry := webserver.NewRegistry(func() *storefront.Client {
		return storefront.New(identity.NewRemoteProvider(base), storefront.HTTPDialer(base), logger)
	}, cfg.SessionIdleTTL, logger, webserver.WithMaxVisitors(cfg.MaxVisitors))
	defer registry.Close()

	ctx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go registry.Run(ctx)

	srv, err := webserver.New(cfg.HTTPAddr, logger, webserver.Deps{
		Registry:    registry,
		Renderer:    views.NewRenderer(cfg.RenderWait, logger),
		Signup:      base,
		CORSOrigins: cfg.CORSOrigins,
		VisitorTTL:  cfg.SessionIdleTTL,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
