// Package rpctest provides an in-memory backend implementing the rpc
// surface, for storefront tests.
package rpctest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/blob"
	"storefront/internal/domain"
	"storefront/internal/rpc"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"
)

type account struct {
	principal domain.Principal
	username  string
	password  string
	role      domain.Role
}

// Backend holds all state behind the fake clients.
type Backend struct {
	mu         sync.Mutex
	accounts   map[string]*account
	tokens     map[string]domain.Principal
	products   map[uint64]domain.Product
	categories map[uint64]domain.Category
	carts      map[domain.Principal][]domain.CartItem
	orders     []domain.Order
	reviews    map[uint64][]domain.Review
	profiles   map[domain.Principal]domain.UserProfile
	blobs      map[string][]byte
	nextID     uint64
	calls      map[string]int
	failures   map[string]error
	holds      map[string]chan struct{}
	dialGate   chan struct{}
	now        func() time.Time
}

func NewBackend() *Backend {
	return &Backend{
		accounts:   make(map[string]*account),
		tokens:     make(map[string]domain.Principal),
		products:   make(map[uint64]domain.Product),
		categories: make(map[uint64]domain.Category),
		carts:      make(map[domain.Principal][]domain.CartItem),
		reviews:    make(map[uint64][]domain.Review),
		profiles:   make(map[domain.Principal]domain.UserProfile),
		blobs:      make(map[string][]byte),
		calls:      make(map[string]int),
		failures:   make(map[string]error),
		holds:      make(map[string]chan struct{}),
		now:        time.Now,
	}
}

// AddAccount registers a principal that can log in with username and password.
func (b *Backend) AddAccount(username, password string, role domain.Role) domain.Principal {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := domain.Principal(uuid.NewString())
	b.accounts[strings.ToLower(username)] = &account{principal: p, username: username, password: password, role: role}
	return p
}

// SeedCategory and SeedProduct insert catalog data without authorization checks.
func (b *Backend) SeedCategory(name string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.categories[b.nextID] = domain.Category{ID: b.nextID, Name: name}
	return b.nextID
}

func (b *Backend) SeedProduct(in domain.ProductInput) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.products[b.nextID] = productFrom(b.nextID, in)
	return b.nextID
}

// Calls reports how many times a procedure was invoked. Procedure names are
// the rpc.Client method names.
func (b *Backend) Calls(proc string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[proc]
}

// BlobCount reports how many blobs are stored.
func (b *Backend) BlobCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blobs)
}

// FailNext makes the next invocation of proc return err without effects.
func (b *Backend) FailNext(proc string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[proc] = err
}

// Hold blocks invocations of proc until the returned release func is called.
func (b *Backend) Hold(proc string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.holds[proc] = ch
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.holds, proc)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// HoldDial blocks Dial until the returned release func is called.
func (b *Backend) HoldDial() (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.dialGate = ch
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.dialGate = nil
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Dial returns a client acting as the holder of token. The empty token is
// the anonymous caller.
func (b *Backend) Dial(ctx context.Context, token string) (rpc.Client, error) {
	b.mu.Lock()
	gate := b.dialGate
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if token == "" {
		return &Client{b: b}, nil
	}
	b.mu.Lock()
	p, ok := b.tokens[token]
	b.mu.Unlock()
	if !ok {
		return nil, rpc.ErrInvalidToken
	}
	return &Client{b: b, principal: p}, nil
}

// ClientFor returns a client for principal without a token exchange.
func (b *Backend) ClientFor(p domain.Principal) *Client {
	return &Client{b: b, principal: p}
}

func (b *Backend) IssueToken(_ context.Context, username, password string) (rpc.Token, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["IssueToken"]++
	if err := b.takeFailure("IssueToken"); err != nil {
		return rpc.Token{}, err
	}
	acc, ok := b.accounts[strings.ToLower(strings.TrimSpace(username))]
	if !ok || acc.password != password {
		return rpc.Token{}, rpc.ErrInvalidCredentials
	}
	tok := uuid.NewString()
	b.tokens[tok] = acc.principal
	return rpc.Token{AccessToken: tok, TokenType: "Bearer", ExpiresIn: 3600, Principal: acc.principal}, nil
}

func (b *Backend) RevokeToken(_ context.Context, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["RevokeToken"]++
	if err := b.takeFailure("RevokeToken"); err != nil {
		return err
	}
	delete(b.tokens, token)
	return nil
}

// Signup registers a user account the way the backend does.
func (b *Backend) Signup(_ context.Context, username, password string) (*domain.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["Signup"]++
	if err := b.takeFailure("Signup"); err != nil {
		return nil, err
	}
	key := strings.ToLower(strings.TrimSpace(username))
	if key == "" {
		return nil, domain.Invalid("username", "username required")
	}
	if len(strings.TrimSpace(password)) < 8 {
		return nil, domain.Invalid("password", "password must be at least 8 characters")
	}
	if _, ok := b.accounts[key]; ok {
		return nil, domain.ErrAlreadyExists
	}
	p := domain.Principal(uuid.NewString())
	b.accounts[key] = &account{principal: p, username: key, password: strings.TrimSpace(password), role: domain.RoleUser}
	return &domain.Account{Principal: p, Username: key, Role: domain.RoleUser, CreatedAt: b.now()}, nil
}

// caller holds mu
func (b *Backend) takeFailure(proc string) error {
	if err, ok := b.failures[proc]; ok {
		delete(b.failures, proc)
		return err
	}
	return nil
}

func productFrom(id uint64, in domain.ProductInput) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Price:       in.Price,
		Image:       in.Image,
	}
}

// Client is one caller's view of a Backend.
type Client struct {
	b         *Backend
	principal domain.Principal
}

var (
	_ rpc.Client        = (*Client)(nil)
	_ rpc.Authenticator = (*Backend)(nil)
)

func (c *Client) Principal() domain.Principal { return c.principal }

// enter records the call, waits on any hold and returns with mu held
// unless an injected failure is returned.
func (c *Client) enter(ctx context.Context, proc string) error {
	b := c.b
	b.mu.Lock()
	b.calls[proc]++
	hold := b.holds[proc]
	b.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	b.mu.Lock()
	if err := b.takeFailure(proc); err != nil {
		b.mu.Unlock()
		return err
	}
	return nil
}

func (c *Client) requireCaller() error {
	if c.principal.IsAnonymous() {
		return domain.ErrUnauthorized
	}
	return nil
}

// caller holds mu
func (c *Client) role() domain.Role {
	if c.principal.IsAnonymous() {
		return domain.RoleGuest
	}
	for _, acc := range c.b.accounts {
		if acc.principal == c.principal {
			return acc.role
		}
	}
	return domain.RoleGuest
}

// caller holds mu
func (c *Client) requireAdmin() error {
	if err := c.requireCaller(); err != nil {
		return err
	}
	if c.role() != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if err := c.enter(ctx, "ListProducts"); err != nil {
		return nil, err
	}
	defer c.b.mu.Unlock()
	return c.b.sortedProducts(func(domain.Product) bool { return true }), nil
}

// caller holds mu
func (b *Backend) sortedProducts(keep func(domain.Product) bool) []domain.Product {
	out := make([]domain.Product, 0, len(b.products))
	for _, p := range b.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Client) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	if err := c.enter(ctx, "GetProduct"); err != nil {
		return nil, err
	}
	defer c.b.mu.Unlock()
	p, ok := c.b.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (c *Client) SearchProducts(ctx context.Context, text string) ([]domain.Product, error) {
	if err := c.enter(ctx, "SearchProducts"); err != nil {
		return nil, err
	}
	defer c.b.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(text))
	return c.b.sortedProducts(func(p domain.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle)
	}), nil
}

// caller holds mu
func (c *Client) validateProduct(in domain.ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Invalid("name", "is required")
	}
	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) || in.Price < 0 {
		return domain.Invalid("price", "must be a non-negative number")
	}
	if _, ok := c.b.categories[in.CategoryID]; !ok {
		return domain.Invalid("category", "unknown category")
	}
	return nil
}

func (c *Client) CreateProduct(ctx context.Context, in domain.ProductInput) (uint64, error) {
	if err := c.enter(ctx, "CreateProduct"); err != nil {
		return 0, err
	}
	defer c.b.mu.Unlock()
	if err := c.requireAdmin(); err != nil {
		return 0, err
	}
	if err := c.validateProduct(in); err != nil {
		return 0, err
	}
	c.b.nextID++
	c.b.products[c.b.nextID] = productFrom(c.b.nextID, in)
	return c.b.nextID, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id uint64, in domain.ProductInput) error {
	if err := c.enter(ctx, "UpdateProduct"); err != nil {
		return err
	}
	defer c.b.mu.Unlock()
	if err := c.requireAdmin(); err != nil {
		return err
	}
	old, ok := c.b.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	if err := c.validateProduct(in); err != nil {
		return err
	}
	p := productFrom(id, in)
	p.Rating = old.Rating
	c.b.products[id] = p
	return nil
}

func (c *Client) DeleteProduct(ctx context.Context, id uint64) error {
	if err := c.enter(ctx, "DeleteProduct"); err != nil {
		return err
	}
	defer c.b.mu.Unlock()
	if err := c.requireAdmin(); err != nil {
		return err
	}
	if _, ok := c.b.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(c.b.products, id)
	return nil
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if err := c.enter(ctx, "ListCategories"); err != nil {
		return nil, err
	}
	defer c.b.mu.Unlock()
	out := make([]domain.Category, 0, len(c.b.categories))
	for _, cat := range c.b.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, name string) (uint64, error) {
	if err := c.enter(ctx, "CreateCategory"); err != nil {
		return 0, err
	}
	defer c.b.mu.Unlock()
	if err := c.requireAdmin(); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.Invalid("name", "is required")
	}
	c.b.nextID++
	c.b.categories[c.b.nextID] = domain.Category{ID: c.b.nextID, Name: name}
	return c.b.nextID, nil
}

func (c *Client) GetCategory(ctx context.Context, id uint64) (*domain.Category, error) {
	if err := c.enter(ctx, "GetCategory"); err != nil {
		return nil, err
	}
	defer c.b.mu.Unlock()
	cat, ok := c.b.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cat, nil
}

func (c *Client) GetCart(ctx context.Context) ([]domain.CartItem, error) {
	if err := c.enter(ctx, "GetCart"); err != nil {
		return nil, err
	}
	defer c.b.mu.Unlock()
	if err := c.requireCaller(); err != nil {
		return nil, err
	}
	return append([]domain.CartItem{}, c.b.carts[c.principal]...), nil
}

func (c *Client) AddToCart(ctx context.Context, productID, quantity uint64) error {
	if err := c.enter(ctx, "AddToCart"); err != nil {
		return err
	}
	defer c.b.mu.Unlock()
	if err := c.requireCaller(); err != nil {
		return err
	}
	if quantity == 0 {
		return domain.Invalid("quantity", "must be at least 1")
	}
	if _, ok := c.b.products[productID]; !ok {
		return domain.ErrNotFound
	}
	items := c.b.carts[c.principal]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			return nil
		}
	}
	c.b.carts[c.principal] = append(items, domain.CartItem{ProductID: productID, Quantity: quantity})
	return nil
}

func (c *Client) UpdateCartItem(ctx context.Context, productID, quantity uint64) error {
	if err := c.enter(ctx, "UpdateCartItem"); err != nil {
		return err
	}
	defer c.b.mu.Unlock()
	if err := c.requireCaller(); err != nil {
		return err
	}
	items := c.b.carts[c.principal]
	for i := range items {
		if items[i].ProductID != productID {
			continue
		}
		if quantity == 0 {
			c.b.carts[c.principal] = append(items[:i:i], items[i+1:]...)
		} else {
			items[i].Quantity = quantity
		}
		return nil
	}
	return domain.ErrNotFound
}

func (c *Client) RemoveFromCart(ctx context.Context, productID uint64) error {
	if err := c.enter(ctx, "RemoveFromCart"); err != nil {
		return err
	}
	defer c.b.mu.Unlock()
	if err := c.requireCaller(); err != nil {
		return err
	}
	items := c.b.carts[c.principal]
	for i := range items {
		if items[i].ProductID == productID {
			c.b.carts[c.principal] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (c *Client) ClearCart(ctx context.Context) error {
	if err := c.enter(ctx, "ClearCart"); err != nil {
		return err
	}
	defer c.b.mu.Unlock()
	if err := c.requireCaller(); err != nil {
		return err
	}
	delete(c.b.carts, c.principal)
	return nil
}

func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (uint64, error) {
	if err := c.enter(ctx, "PlaceOrder"); err != nil {
		return 0, err
	}
	defer c.b.mu.Unlock()
	if err := c.requireCaller(); err != nil {
		return 0, err
	}
	for _, f := range [][2]string{{"customerName", req.CustomerName}, {"phone", req.Phone}, {"address", req.Address}} {
		if strings.TrimSpace(f[1]) == "" {
			return 0, domain.Invalid(f[0], "is required")
		}
	}
	items := c.b.carts[c.principal]
	if len(items) == 0 {
		return 0, domain.ErrEmptyCart
	}
	total := decimal.Zero
	lines := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		p, ok := c.b.products[it.ProductID]
		if !ok {
			return 0, fmt.Errorf("product %d: %w", it.ProductID, domain.ErrNotFound)
		}
		lines = append(lines, domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: p.Price})
		total = total.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	payment := strings.ToUpper(strings.TrimSpace(req.PaymentMethod))
	if payment == "" {
		payment = domain.PaymentCOD
	}
	c.b.nextID++
	c.b.orders = append(c.b.orders, domain.Order{
		ID:            c.b.nextID,
		Customer:      c.principal,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Address:       strings.TrimSpace(req.Address),
		Phone:         strings.TrimSpace(req.Phone),
		PaymentMethod: payment,
		Items:         lines,
		Total:         total.Round(2).InexactFloat64(),
		Timestamp:     c.b.now().UnixNano(),
	})
	delete(c.b.carts, c.principal)
	return c.b.nextID, nil
}

func (c *Client) OrderHistory(ctx context.Context) ([]domain.Order, error) {
	if err := c.enter(ctx, "OrderHistory"); err != nil {
		return nil, err
	}
	defer c.b.mu.Unlock()
	if err := c.requireCaller(); err != nil {
		return nil, err
	}
	var out []domain.Order
	for _, o := range c.b.orders {
		if o.Customer == c.principal {
			out = append(out, o)
		}
	}
	return out, nil
}

func (c *Client) AllOrders(ctx context.Context) ([]domain.Order, error) {
	if err := c.enter(ctx, "AllOrders"); err != nil {
		return nil, err
	}
	defer c.b.mu.Unlock()
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	return append([]domain.Order{}, c.b.orders...), nil
}

func (c *Client) ProductReviews(ctx context.Context, productID uint64) ([]domain.Review, error) {
	if err := c.enter(ctx, "ProductReviews"); err != nil {
		return nil, err
	}
	defer c.b.mu.Unlock()
	if _, ok := c.b.products[productID]; !ok {
		return nil, domain.ErrNotFound
	}
	return append([]domain.Review{}, c.b.reviews[productID]...), nil
}

func (c *Client) AddReview(ctx context.Context, r domain.Review) error {
	if err := c.enter(ctx, "AddReview"); err != nil {
		return err
	}
	defer c.b.mu.Unlock()
	if err := c.requireCaller(); err != nil {
		return err
	}
	if r.Rating < 1 || r.Rating > 5 {
		return domain.Invalid("rating", "must be between 1 and 5")
	}
	if strings.TrimSpace(r.Comment) == "" {
		return domain.Invalid("comment", "is required")
	}
	p, ok := c.b.products[r.ProductID]
	if !ok {
		return domain.ErrNotFound
	}
	if strings.TrimSpace(r.Reviewer) == "" {
		r.Reviewer = "Anonymous"
	}
	c.b.reviews[r.ProductID] = append(c.b.reviews[r.ProductID], r)
	var sum float64
	for _, rv := range c.b.reviews[r.ProductID] {
		sum += float64(rv.Rating)
	}
	p.Rating = sum / float64(len(c.b.reviews[r.ProductID]))
	c.b.products[r.ProductID] = p
	return nil
}

func (c *Client) CallerProfile(ctx context.Context) (mo.Option[domain.UserProfile], error) {
	if err := c.enter(ctx, "CallerProfile"); err != nil {
		return mo.None[domain.UserProfile](), err
	}
	defer c.b.mu.Unlock()
	p, ok := c.b.profiles[c.principal]
	return mo.TupleToOption(p, ok && !c.principal.IsAnonymous()), nil
}

func (c *Client) SaveCallerProfile(ctx context.Context, p domain.UserProfile) error {
	if err := c.enter(ctx, "SaveCallerProfile"); err != nil {
		return err
	}
	defer c.b.mu.Unlock()
	if err := c.requireCaller(); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return domain.Invalid("name", "is required")
	}
	c.b.profiles[c.principal] = p
	return nil
}

func (c *Client) UserProfile(ctx context.Context, principal domain.Principal) (mo.Option[domain.UserProfile], error) {
	if err := c.enter(ctx, "UserProfile"); err != nil {
		return mo.None[domain.UserProfile](), err
	}
	defer c.b.mu.Unlock()
	if err := c.requireCaller(); err != nil {
		return mo.None[domain.UserProfile](), err
	}
	if principal != c.principal && c.role() != domain.RoleAdmin {
		return mo.None[domain.UserProfile](), domain.ErrForbidden
	}
	p, ok := c.b.profiles[principal]
	return mo.TupleToOption(p, ok), nil
}

func (c *Client) CallerRole(ctx context.Context) (domain.Role, error) {
	if err := c.enter(ctx, "CallerRole"); err != nil {
		return "", err
	}
	defer c.b.mu.Unlock()
	return c.role(), nil
}

func (c *Client) IsCallerAdmin(ctx context.Context) (bool, error) {
	if err := c.enter(ctx, "IsCallerAdmin"); err != nil {
		return false, err
	}
	defer c.b.mu.Unlock()
	return c.role() == domain.RoleAdmin, nil
}

func (c *Client) AssignRole(ctx context.Context, principal domain.Principal, role domain.Role) error {
	if err := c.enter(ctx, "AssignRole"); err != nil {
		return err
	}
	defer c.b.mu.Unlock()
	if err := c.requireAdmin(); err != nil {
		return err
	}
	for _, acc := range c.b.accounts {
		if acc.principal == principal {
			acc.role = role
			return nil
		}
	}
	return domain.ErrNotFound
}

func (c *Client) UploadBlob(ctx context.Context, b *blob.External) (domain.Image, error) {
	if !b.Local() {
		if b.DirectURL() == "" {
			return domain.Image{}, blob.ErrNoContent
		}
		return rpc.ImageFromURL(b.DirectURL()), nil
	}
	data, err := io.ReadAll(b.UploadReader())
	if err != nil {
		return domain.Image{}, err
	}
	if err := c.enter(ctx, "UploadBlob"); err != nil {
		return domain.Image{}, err
	}
	defer c.b.mu.Unlock()
	if err := c.requireAdmin(); err != nil {
		return domain.Image{}, err
	}
	id := uuid.NewString()
	c.b.blobs[id] = data
	return domain.Image{ID: id, URL: "/blobs/" + id}, nil
}

func (c *Client) FetchBlob(ctx context.Context, url string) ([]byte, error) {
	if err := c.enter(ctx, "FetchBlob"); err != nil {
		return nil, err
	}
	defer c.b.mu.Unlock()
	data, ok := c.b.blobs[rpc.ImageFromURL(url).ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (c *Client) DeleteBlob(ctx context.Context, id string) error {
	if err := c.enter(ctx, "DeleteBlob"); err != nil {
		return err
	}
	defer c.b.mu.Unlock()
	if err := c.requireAdmin(); err != nil {
		return err
	}
	if _, ok := c.b.blobs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(c.b.blobs, id)
	return nil
}

// ErrInjected is a convenient error for FailNext.
var ErrInjected = errors.New("injected failure")
