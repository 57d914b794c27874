package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"storefront/internal/domain"
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

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestCheckoutScenario_Integration(t *testing.T) {
	ctx := context.Background()
	pool := integrationPool(ctx, t)
	defer pool.Close()
	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE reviews, order_items, orders, cart_items, products, categories, profiles, tokens, accounts, blobs RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	accounts := accountrepo.NewPostgres(pool, nil)
	auth := authsvc.New(accounts, tokenrepo.NewPostgres(pool), 0, nil)
	productRepo := productrepo.NewPostgres(pool, nil)
	categoryRepo := categoryrepo.NewPostgres(pool)

	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), pool, Deps{
		AuthSvc:     auth,
		ProductSvc:  productsvc.New(productRepo, categoryRepo),
		CategorySvc: categorysvc.New(categoryRepo),
		CartSvc:     cartsvc.New(cartrepo.NewPostgres(pool), productRepo),
		OrderSvc:    ordersvc.New(orderrepo.NewPostgres(pool, nil), nil),
		ReviewSvc:   reviewsvc.New(reviewrepo.NewPostgres(pool), productRepo),
		ProfileSvc:  profilesvc.New(profilerepo.NewPostgres(pool)),
		AccessSvc:   accesssvc.New(accounts),
		MediaSvc:    mediasvc.New(blobrepo.NewPostgres(pool), ""),
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	if _, err := auth.Signup(ctx, authsvc.SignupInput{Username: "admin", Password: "Admin1234", Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("signup admin: %v", err)
	}
	if _, err := auth.Signup(ctx, authsvc.SignupInput{Username: "ursula", Password: "Ursula123"}); err != nil {
		t.Fatalf("signup user: %v", err)
	}
	adminToken := login(t, router, "admin", "Admin1234")
	userToken := login(t, router, "ursula", "Ursula123")

	var cat domain.Category
	mustJSON(t, doRequest(router, http.MethodPost, "/categories", adminToken, strings.NewReader(`{"name":"Kitchen"}`)), http.StatusCreated, &cat)

	var created domain.Product
	body := fmt.Sprintf(`{"name":"Mug","description":"ceramic","price":9.99,"category":%d,"image":{"url":"/blobs/x"}}`, cat.ID)
	mustJSON(t, doRequest(router, http.MethodPost, "/products", adminToken, strings.NewReader(body)), http.StatusCreated, &created)

	var listed []domain.Product
	mustJSON(t, doRequest(router, http.MethodGet, "/products", "", nil), http.StatusOK, &listed)
	if len(listed) != 1 || listed[0].ID != created.ID || listed[0].Price != 9.99 {
		t.Fatalf("unexpected product list %+v", listed)
	}

	addBody := fmt.Sprintf(`{"productId":%d,"quantity":2}`, created.ID)
	if rec := doRequest(router, http.MethodPost, "/cart/items", userToken, strings.NewReader(addBody)); rec.Code != http.StatusNoContent {
		t.Fatalf("add to cart: %d %s", rec.Code, rec.Body.String())
	}

	var order domain.Order
	mustJSON(t, doRequest(router, http.MethodPost, "/orders", userToken, strings.NewReader(`{"customerName":"Ursula","address":"1 Main St","phone":"555"}`)), http.StatusCreated, &order)
	if order.Total != 19.98 || order.PaymentMethod != domain.PaymentCOD {
		t.Fatalf("unexpected order %+v", order)
	}

	var cart []domain.CartItem
	mustJSON(t, doRequest(router, http.MethodGet, "/cart", userToken, nil), http.StatusOK, &cart)
	if len(cart) != 0 {
		t.Fatalf("expected empty cart, got %+v", cart)
	}

	var history []domain.Order
	mustJSON(t, doRequest(router, http.MethodGet, "/orders/mine", userToken, nil), http.StatusOK, &history)
	if len(history) != 1 || history[0].Total != 19.98 || len(history[0].Items) != 1 || history[0].Items[0].Price != 9.99 {
		t.Fatalf("unexpected history %+v", history)
	}

	if rec := doRequest(router, http.MethodPost, "/orders", userToken, strings.NewReader(`{"customerName":"Ursula","address":"1 Main St","phone":"555"}`)); rec.Code != http.StatusConflict {
		t.Fatalf("expected empty cart conflict, got %d", rec.Code)
	}

	reviewPath := fmt.Sprintf("/products/%d/reviews", created.ID)
	if rec := doRequest(router, http.MethodPost, reviewPath, userToken, strings.NewReader(`{"rating":4,"comment":"solid"}`)); rec.Code != http.StatusNoContent {
		t.Fatalf("add review: %d %s", rec.Code, rec.Body.String())
	}
	var reloaded domain.Product
	mustJSON(t, doRequest(router, http.MethodGet, fmt.Sprintf("/products/%d", created.ID), "", nil), http.StatusOK, &reloaded)
	if reloaded.Rating != 4 {
		t.Fatalf("expected rating 4, got %v", reloaded.Rating)
	}
}

func login(t *testing.T, router http.Handler, username, password string) string {
	t.Helper()
	form := url.Values{"grant_type": {"password"}, "username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var out tokenResponse
	mustJSON(t, rec, http.StatusOK, &out)
	return out.AccessToken
}

func mustJSON(t *testing.T, rec *httptest.ResponseRecorder, status int, dst any) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d body=%s", status, rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func integrationPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("ping db: %v", err)
	}
	return pool
}
