package httpserver

import (
	"context"
	"errors"
	"io"
	"log"

	"storefront/internal/domain"
	blobrepo "storefront/internal/repository/blob"
	authsvc "storefront/internal/service/auth"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/mo"
)

type AuthService interface {
	Signup(ctx context.Context, in authsvc.SignupInput) (*domain.Account, error)
	Login(ctx context.Context, username, password string) (*domain.Account, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.Account, error)
	Logout(ctx context.Context, token string) error
	AccessTTLSeconds() int
}

type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Search(ctx context.Context, text string) ([]domain.Product, error)
	Get(ctx context.Context, id uint64) (*domain.Product, error)
	Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uint64, in domain.ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uint64) error
}

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id uint64) (*domain.Category, error)
	Create(ctx context.Context, name string) (*domain.Category, error)
}

type CartService interface {
	Get(ctx context.Context, principal domain.Principal) ([]domain.CartItem, error)
	Add(ctx context.Context, principal domain.Principal, productID, quantity uint64) error
	Update(ctx context.Context, principal domain.Principal, productID, quantity uint64) error
	Remove(ctx context.Context, principal domain.Principal, productID uint64) error
	Clear(ctx context.Context, principal domain.Principal) error
}

type OrderService interface {
	Place(ctx context.Context, principal domain.Principal, req domain.OrderRequest) (*domain.Order, error)
	History(ctx context.Context, principal domain.Principal) ([]domain.Order, error)
	All(ctx context.Context) ([]domain.Order, error)
}

type ReviewService interface {
	List(ctx context.Context, productID uint64) ([]domain.Review, error)
	Add(ctx context.Context, r domain.Review) error
}

type ProfileService interface {
	Get(ctx context.Context, principal domain.Principal) (mo.Option[domain.UserProfile], error)
	Save(ctx context.Context, principal domain.Principal, p domain.UserProfile) error
}

type AccessService interface {
	Role(ctx context.Context, principal domain.Principal) (domain.Role, error)
	IsAdmin(ctx context.Context, principal domain.Principal) (bool, error)
	Assign(ctx context.Context, caller, target domain.Principal, role domain.Role) error
}

type MediaService interface {
	Upload(ctx context.Context, contentType string, data []byte) (domain.Image, error)
	Get(ctx context.Context, id string) (*blobrepo.Object, error)
	Delete(ctx context.Context, id string) error
}

// Deps bundles the services the API is built from.
type Deps struct {
	AuthSvc     AuthService
	ProductSvc  ProductService
	CategorySvc CategoryService
	CartSvc     CartService
	OrderSvc    OrderService
	ReviewSvc   ReviewService
	ProfileSvc  ProfileService
	AccessSvc   AccessService
	MediaSvc    MediaService
}

func (d Deps) validate() error {
	switch {
	case d.AuthSvc == nil:
		return errors.New("auth service required")
	case d.ProductSvc == nil:
		return errors.New("product service required")
	case d.CategorySvc == nil:
		return errors.New("category service required")
	case d.CartSvc == nil:
		return errors.New("cart service required")
	case d.OrderSvc == nil:
		return errors.New("order service required")
	case d.ReviewSvc == nil:
		return errors.New("review service required")
	case d.ProfileSvc == nil:
		return errors.New("profile service required")
	case d.AccessSvc == nil:
		return errors.New("access service required")
	case d.MediaSvc == nil:
		return errors.New("media service required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
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
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.POST("/auth/token", tokenHandler(deps.AuthSvc, logger))
	router.POST("/auth/signup", signupHandler(deps.AuthSvc))
	router.POST("/auth/logout", logoutHandler(deps.AuthSvc))

	api := router.Group("/")
	api.Use(callerMiddleware(deps.AuthSvc))
	admin := requireAdmin(deps.AccessSvc)

	api.GET("/products", listProductsHandler(deps.ProductSvc))
	api.GET("/products/search", searchProductsHandler(deps.ProductSvc))
	api.GET("/products/:id", getProductHandler(deps.ProductSvc))
	api.POST("/products", admin, createProductHandler(deps.ProductSvc))
	api.PUT("/products/:id", admin, updateProductHandler(deps.ProductSvc))
	api.DELETE("/products/:id", admin, deleteProductHandler(deps.ProductSvc))
	api.GET("/products/:id/reviews", listReviewsHandler(deps.ReviewSvc))
	api.POST("/products/:id/reviews", requireCaller(), addReviewHandler(deps.ReviewSvc))

	api.GET("/categories", listCategoriesHandler(deps.CategorySvc))
	api.GET("/categories/:id", getCategoryHandler(deps.CategorySvc))
	api.POST("/categories", admin, createCategoryHandler(deps.CategorySvc))

	cart := api.Group("/cart", requireCaller())
	cart.GET("", getCartHandler(deps.CartSvc))
	cart.DELETE("", clearCartHandler(deps.CartSvc))
	cart.POST("/items", addCartItemHandler(deps.CartSvc))
	cart.PUT("/items/:productId", updateCartItemHandler(deps.CartSvc))
	cart.DELETE("/items/:productId", removeCartItemHandler(deps.CartSvc))

	api.POST("/orders", requireCaller(), placeOrderHandler(deps.OrderSvc))
	api.GET("/orders/mine", requireCaller(), orderHistoryHandler(deps.OrderSvc))
	api.GET("/orders", admin, allOrdersHandler(deps.OrderSvc))

	api.GET("/profile", callerProfileHandler(deps.ProfileSvc))
	api.PUT("/profile", requireCaller(), saveProfileHandler(deps.ProfileSvc))
	api.GET("/users/:principal/profile", requireCaller(), userProfileHandler(deps.ProfileSvc, deps.AccessSvc))
	api.PUT("/users/:principal/role", requireCaller(), assignRoleHandler(deps.AccessSvc))
	api.GET("/role", roleHandler(deps.AccessSvc))
	api.GET("/role/admin", isAdminHandler(deps.AccessSvc))

	api.POST("/blobs", admin, uploadBlobHandler(deps.MediaSvc))
	api.DELETE("/blobs/:id", admin, deleteBlobHandler(deps.MediaSvc))
	router.GET("/blobs/:id", downloadBlobHandler(deps.MediaSvc))

	return router, nil
}
