package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/blob"
	"storefront/internal/domain"

	"github.com/samber/mo"
)

const maxErrorBody = 64 << 10

// HTTPClient calls the backend's HTTP/JSON API. A client without a token
// acts as the anonymous caller; WithToken derives a client for a principal.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *log.Logger
}

var (
	_ Client        = (*HTTPClient)(nil)
	_ Authenticator = (*HTTPClient)(nil)
	_ blob.Fetcher  = (*HTTPClient)(nil)
)

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

func WithLogger(l *log.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	return c
}

// WithToken returns a copy of c authenticated with token.
func (c *HTTPClient) WithToken(token string) *HTTPClient {
	clone := *c
	clone.token = token
	return &clone
}

func (c *HTTPClient) BaseURL() string { return c.baseURL }

func (c *HTTPClient) Anonymous() bool { return c.token == "" }

func (c *HTTPClient) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := c.doJSON(ctx, http.MethodGet, "/products", nil, &out)
	return out, err
}

func (c *HTTPClient) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	var out domain.Product
	if err := c.doJSON(ctx, http.MethodGet, "/products/"+idPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SearchProducts(ctx context.Context, text string) ([]domain.Product, error) {
	var out []domain.Product
	path := "/products/search?" + url.Values{"text": {text}}.Encode()
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *HTTPClient) CreateProduct(ctx context.Context, in domain.ProductInput) (uint64, error) {
	var out domain.Product
	if err := c.doJSON(ctx, http.MethodPost, "/products", in, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *HTTPClient) UpdateProduct(ctx context.Context, id uint64, in domain.ProductInput) error {
	return c.doJSON(ctx, http.MethodPut, "/products/"+idPath(id), in, nil)
}

func (c *HTTPClient) DeleteProduct(ctx context.Context, id uint64) error {
	return c.doJSON(ctx, http.MethodDelete, "/products/"+idPath(id), nil, nil)
}

func (c *HTTPClient) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := c.doJSON(ctx, http.MethodGet, "/categories", nil, &out)
	return out, err
}

func (c *HTTPClient) CreateCategory(ctx context.Context, name string) (uint64, error) {
	var out domain.Category
	if err := c.doJSON(ctx, http.MethodPost, "/categories", map[string]string{"name": name}, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *HTTPClient) GetCategory(ctx context.Context, id uint64) (*domain.Category, error) {
	var out domain.Category
	if err := c.doJSON(ctx, http.MethodGet, "/categories/"+idPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetCart(ctx context.Context) ([]domain.CartItem, error) {
	var out []domain.CartItem
	err := c.doJSON(ctx, http.MethodGet, "/cart", nil, &out)
	return out, err
}

func (c *HTTPClient) AddToCart(ctx context.Context, productID, quantity uint64) error {
	return c.doJSON(ctx, http.MethodPost, "/cart/items", domain.CartItem{ProductID: productID, Quantity: quantity}, nil)
}

func (c *HTTPClient) UpdateCartItem(ctx context.Context, productID, quantity uint64) error {
	body := struct {
		Quantity uint64 `json:"quantity"`
	}{quantity}
	return c.doJSON(ctx, http.MethodPut, "/cart/items/"+idPath(productID), body, nil)
}

func (c *HTTPClient) RemoveFromCart(ctx context.Context, productID uint64) error {
	return c.doJSON(ctx, http.MethodDelete, "/cart/items/"+idPath(productID), nil, nil)
}

func (c *HTTPClient) ClearCart(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/cart", nil, nil)
}

func (c *HTTPClient) PlaceOrder(ctx context.Context, req domain.OrderRequest) (uint64, error) {
	var out domain.Order
	if err := c.doJSON(ctx, http.MethodPost, "/orders", req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *HTTPClient) OrderHistory(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := c.doJSON(ctx, http.MethodGet, "/orders/mine", nil, &out)
	return out, err
}

func (c *HTTPClient) AllOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := c.doJSON(ctx, http.MethodGet, "/orders", nil, &out)
	return out, err
}

func (c *HTTPClient) ProductReviews(ctx context.Context, productID uint64) ([]domain.Review, error) {
	var out []domain.Review
	err := c.doJSON(ctx, http.MethodGet, "/products/"+idPath(productID)+"/reviews", nil, &out)
	return out, err
}

func (c *HTTPClient) AddReview(ctx context.Context, r domain.Review) error {
	body := struct {
		Reviewer string `json:"reviewer"`
		Rating   uint8  `json:"rating"`
		Comment  string `json:"comment"`
	}{r.Reviewer, r.Rating, r.Comment}
	return c.doJSON(ctx, http.MethodPost, "/products/"+idPath(r.ProductID)+"/reviews", body, nil)
}

type profileEnvelope struct {
	Profile *domain.UserProfile `json:"profile"`
}

func (p profileEnvelope) option() mo.Option[domain.UserProfile] {
	if p.Profile == nil {
		return mo.None[domain.UserProfile]()
	}
	return mo.Some(*p.Profile)
}

func (c *HTTPClient) CallerProfile(ctx context.Context) (mo.Option[domain.UserProfile], error) {
	var out profileEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/profile", nil, &out); err != nil {
		return mo.None[domain.UserProfile](), err
	}
	return out.option(), nil
}

func (c *HTTPClient) SaveCallerProfile(ctx context.Context, p domain.UserProfile) error {
	return c.doJSON(ctx, http.MethodPut, "/profile", p, nil)
}

func (c *HTTPClient) UserProfile(ctx context.Context, principal domain.Principal) (mo.Option[domain.UserProfile], error) {
	var out profileEnvelope
	path := "/users/" + url.PathEscape(string(principal)) + "/profile"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return mo.None[domain.UserProfile](), err
	}
	return out.option(), nil
}

func (c *HTTPClient) CallerRole(ctx context.Context) (domain.Role, error) {
	var out struct {
		Role domain.Role `json:"role"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/role", nil, &out); err != nil {
		return "", err
	}
	return out.Role, nil
}

func (c *HTTPClient) IsCallerAdmin(ctx context.Context) (bool, error) {
	var out struct {
		Admin bool `json:"admin"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/role/admin", nil, &out); err != nil {
		return false, err
	}
	return out.Admin, nil
}

func (c *HTTPClient) AssignRole(ctx context.Context, principal domain.Principal, role domain.Role) error {
	path := "/users/" + url.PathEscape(string(principal)) + "/role"
	return c.doJSON(ctx, http.MethodPut, path, map[string]domain.Role{"role": role}, nil)
}

// UploadBlob stores local blob content and returns the image handle the
// backend assigned. A handle that already references stored content is
// returned as is.
func (c *HTTPClient) UploadBlob(ctx context.Context, b *blob.External) (domain.Image, error) {
	if !b.Local() {
		if b.DirectURL() == "" {
			return domain.Image{}, blob.ErrNoContent
		}
		return ImageFromURL(b.DirectURL()), nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/blobs", b.UploadReader())
	if err != nil {
		return domain.Image{}, fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = int64(b.Size())
	req.Header.Set("Content-Type", b.ContentType())
	var img domain.Image
	if err := c.send(req, &img); err != nil {
		return domain.Image{}, err
	}
	return img, nil
}

// FetchBlob downloads blob content. Relative URLs resolve against the backend.
func (c *HTTPClient) FetchBlob(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "/") {
		rawURL = c.baseURL + rawURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build blob request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *HTTPClient) DeleteBlob(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/blobs/"+url.PathEscape(id), nil, nil)
}

// IssueToken exchanges credentials for an access token (password grant).
func (c *HTTPClient) IssueToken(ctx context.Context, username, password string) (Token, error) {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var tok Token
	if err := c.send(req, &tok); err != nil {
		return Token{}, err
	}
	if tok.AccessToken == "" {
		return Token{}, errors.New("token response without access_token")
	}
	return tok, nil
}

func (c *HTTPClient) RevokeToken(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.send(req, nil)
}

// Signup registers a new principal.
func (c *HTTPClient) Signup(ctx context.Context, username, password string) (*domain.Account, error) {
	body := map[string]string{"username": username, "password": password}
	var acc domain.Account
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", body, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *HTTPClient) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := decodeError(resp)
		c.logger.Printf("rpc %s %s failed: %v", req.Method, req.URL.Path, rerr)
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, rerr)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		body = errorBody{Message: strings.TrimSpace(string(raw))}
	}
	return body.toError(resp.StatusCode)
}

// ImageFromURL rebuilds an image handle from a blob URL of the form .../blobs/<id>.
func ImageFromURL(u string) domain.Image {
	id := u
	if i := strings.LastIndex(u, "/blobs/"); i >= 0 {
		id = u[i+len("/blobs/"):]
	}
	return domain.Image{ID: id, URL: u}
}

func idPath(id uint64) string { return strconv.FormatUint(id, 10) }
