package db

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool for the storefront backend and verifies
// connectivity with a ping.
func Connect(ctx context.Context, dsn string, logger *log.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Printf("db: connected host=%s database=%s max_conns=%d", cfg.ConnConfig.Host, cfg.ConnConfig.Database, cfg.MaxConns)

	return pool, nil
}
