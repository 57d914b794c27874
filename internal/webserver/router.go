package webserver

import (
	"errors"
	"io"
	"log"
	"time"

	"storefront/internal/views"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps bundles what the storefront web API is built from.
type Deps struct {
	Registry    *Registry
	Renderer    *views.Renderer
	Signup      Signer
	CORSOrigins []string
	VisitorTTL  time.Duration
}

func (d Deps) validate() error {
	switch {
	case d.Registry == nil:
		return errors.New("visitor registry required")
	case d.Renderer == nil:
		return errors.New("renderer required")
	}
	return nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowCredentials = true
	cfg.AddAllowHeaders(requestIDHeader)
	cfg.AddExposeHeaders(requestIDHeader)
	return cfg
}

// buildRouter wires routes for the storefront web API.
func buildRouter(logger *log.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), requestID(), cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/healthz", healthHandler)

	r := deps.Renderer
	site := router.Group("/")
	site.Use(visitorMiddleware(deps.Registry, deps.VisitorTTL))

	site.GET("/blobs/:id", blobHandler())

	api := site.Group("/api")
	api.GET("/shell", shellHandler(r))
	api.GET("/pages/home", homeHandler(r))
	api.GET("/pages/products/:id", productPageHandler(r))
	api.GET("/pages/cart", cartPageHandler(r))
	api.GET("/pages/checkout", checkoutPageHandler(r))
	api.GET("/pages/admin", adminPageHandler(r))

	api.GET("/session", sessionHandler())
	api.POST("/session/login", loginHandler(logger))
	api.POST("/session/logout", logoutHandler())
	api.POST("/session/signup", signupHandler(deps.Signup))

	api.POST("/cart/items", addCartItemHandler())
	api.PUT("/cart/items/:productId", updateCartItemHandler())
	api.DELETE("/cart/items/:productId", removeCartItemHandler())
	api.DELETE("/cart", clearCartHandler())
	api.POST("/checkout", checkoutHandler())
	api.POST("/products/:id/reviews", addReviewHandler())
	api.PUT("/profile", saveProfileHandler())

	admin := api.Group("/admin")
	admin.POST("/products", createProductHandler(logger))
	admin.PUT("/products/:id", updateProductHandler(logger))
	admin.DELETE("/products/:id", deleteProductHandler())
	admin.POST("/categories", createCategoryHandler())
	admin.PUT("/users/:principal/role", assignRoleHandler())

	return router, nil
}
