package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/importer"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
	categorysvc "storefront/internal/service/category"
	productsvc "storefront/internal/service/product"

	"github.com/joho/godotenv"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to a product or category CSV file")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stderr, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	ctx := context.Background()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	kind, err := importer.DetectKind(f)
	if err != nil {
		logger.Fatalf("detect csv kind: %v", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		logger.Fatalf("rewind file: %v", err)
	}

	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	categoryRepo := categoryrepo.NewPostgres(pool)
	catalog := importer.NewServiceCatalog(
		categorysvc.New(categoryRepo),
		productsvc.New(productrepo.NewPostgres(pool, logger), categoryRepo),
	)

	start := time.Now()
	count, err := importer.NewCSVImporter(f, catalog).Run(ctx)
	if err != nil {
		logger.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Imported %d %s in %s\n", count, kind, time.Since(start).Truncate(time.Millisecond))
}
