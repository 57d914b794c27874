package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Server serves the storefront backend API: catalog, carts, orders,
// accounts and product images. The storefront and storefrontctl reach it
// through rpc.HTTPClient.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	db         *pgxpool.Pool
}

// New builds the backend server. db backs the readiness probe; without it the
// server never reports ready.
func New(addr string, logger *log.Logger, db *pgxpool.Pool, deps Deps) (*Server, error) {
	router, err := buildRouter(logger, db, deps)
	if err != nil {
		return nil, err
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		httpServer: httpSrv,
		logger:     logger,
		db:         db,
	}, nil
}

func (s *Server) ListenAndServe() error {
	s.logger.Printf("backend api listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx
// is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Printf("backend api shutting down")
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

var (
	errDBUnreachable = errors.New("db not reachable")
	errSchemaMissing = errors.New("schema not migrated")
	errSchemaDirty   = errors.New("schema migration left dirty")
)

type schemaDB interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// schemaVersion reports the applied migration version of a reachable,
// cleanly migrated database.
func schemaVersion(ctx context.Context, db schemaDB) (int64, error) {
	if err := db.Ping(ctx); err != nil {
		return 0, errDBUnreachable
	}
	var (
		version int64
		dirty   bool
	)
	if err := db.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty); err != nil {
		return 0, errSchemaMissing
	}
	if dirty {
		return version, errSchemaDirty
	}
	return version, nil
}

func readyHandler(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "db not configured"})
			return
		}
		ready(c, db)
	}
}

func ready(c *gin.Context, db schemaDB) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
	defer cancel()
	version, err := schemaVersion(ctx, db)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "schemaVersion": version})
}
