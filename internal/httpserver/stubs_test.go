package httpserver

import (
	"context"
	"io"
	"log"

	"storefront/internal/domain"
	blobrepo "storefront/internal/repository/blob"
	authsvc "storefront/internal/service/auth"

	"github.com/samber/mo"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// stubAuthService maps fixed tokens to principals.
type stubAuthService struct {
	tokens   map[string]domain.Principal
	account  *domain.Account
	loginErr error
	signErr  error
	revoked  []string
}

func (s *stubAuthService) Signup(_ context.Context, in authsvc.SignupInput) (*domain.Account, error) {
	if s.signErr != nil {
		return nil, s.signErr
	}
	return &domain.Account{Principal: "p-" + domain.Principal(in.Username), Username: in.Username, Role: domain.RoleUser}, nil
}

func (s *stubAuthService) Login(context.Context, string, string) (*domain.Account, string, error) {
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	return s.account, "access", nil
}

func (s *stubAuthService) LookupByToken(_ context.Context, token string) (*domain.Account, error) {
	p, ok := s.tokens[token]
	if !ok {
		return nil, authsvc.ErrInvalidToken
	}
	return &domain.Account{Principal: p}, nil
}

func (s *stubAuthService) Logout(_ context.Context, token string) error {
	s.revoked = append(s.revoked, token)
	return nil
}

func (s *stubAuthService) AccessTTLSeconds() int { return 3600 }

type stubProductService struct {
	products  []domain.Product
	createErr error
	created   int
}

func (s *stubProductService) List(context.Context) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubProductService) Search(context.Context, string) ([]domain.Product, error) {
	return nil, nil
}

func (s *stubProductService) Get(_ context.Context, id uint64) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			clone := p
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubProductService) Create(_ context.Context, in domain.ProductInput) (*domain.Product, error) {
	s.created++
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.Product{ID: 42, Name: in.Name, Price: in.Price, CategoryID: in.CategoryID}, nil
}

func (s *stubProductService) Update(_ context.Context, id uint64, in domain.ProductInput) (*domain.Product, error) {
	return &domain.Product{ID: id, Name: in.Name}, nil
}

func (s *stubProductService) Delete(context.Context, uint64) error { return nil }

type stubCategoryService struct{}

func (stubCategoryService) List(context.Context) ([]domain.Category, error) { return nil, nil }

func (stubCategoryService) Get(_ context.Context, id uint64) (*domain.Category, error) {
	return &domain.Category{ID: id, Name: "Mugs"}, nil
}

func (stubCategoryService) Create(_ context.Context, name string) (*domain.Category, error) {
	return &domain.Category{ID: 1, Name: name}, nil
}

type stubCartService struct {
	items     []domain.CartItem
	updates   []domain.CartItem
	lastOwner domain.Principal
}

func (s *stubCartService) Get(_ context.Context, p domain.Principal) ([]domain.CartItem, error) {
	s.lastOwner = p
	return s.items, nil
}

func (s *stubCartService) Add(_ context.Context, p domain.Principal, productID, quantity uint64) error {
	s.lastOwner = p
	s.items = append(s.items, domain.CartItem{ProductID: productID, Quantity: quantity})
	return nil
}

func (s *stubCartService) Update(_ context.Context, p domain.Principal, productID, quantity uint64) error {
	s.lastOwner = p
	s.updates = append(s.updates, domain.CartItem{ProductID: productID, Quantity: quantity})
	return nil
}

func (s *stubCartService) Remove(context.Context, domain.Principal, uint64) error { return nil }

func (s *stubCartService) Clear(context.Context, domain.Principal) error { return nil }

type stubOrderService struct {
	placeErr error
}

func (s *stubOrderService) Place(_ context.Context, p domain.Principal, req domain.OrderRequest) (*domain.Order, error) {
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return &domain.Order{ID: 1, Customer: p, CustomerName: req.CustomerName}, nil
}

func (s *stubOrderService) History(context.Context, domain.Principal) ([]domain.Order, error) {
	return nil, nil
}

func (s *stubOrderService) All(context.Context) ([]domain.Order, error) { return nil, nil }

type stubReviewService struct {
	added []domain.Review
}

func (s *stubReviewService) List(context.Context, uint64) ([]domain.Review, error) { return nil, nil }

func (s *stubReviewService) Add(_ context.Context, r domain.Review) error {
	s.added = append(s.added, r)
	return nil
}

type stubProfileService struct {
	profiles map[domain.Principal]domain.UserProfile
}

func (s *stubProfileService) Get(_ context.Context, p domain.Principal) (mo.Option[domain.UserProfile], error) {
	v, ok := s.profiles[p]
	return mo.TupleToOption(v, ok), nil
}

func (s *stubProfileService) Save(_ context.Context, p domain.Principal, profile domain.UserProfile) error {
	s.profiles[p] = profile
	return nil
}

type stubAccessService struct {
	admins map[domain.Principal]bool
}

func (s *stubAccessService) Role(_ context.Context, p domain.Principal) (domain.Role, error) {
	switch {
	case p.IsAnonymous():
		return domain.RoleGuest, nil
	case s.admins[p]:
		return domain.RoleAdmin, nil
	}
	return domain.RoleUser, nil
}

func (s *stubAccessService) IsAdmin(_ context.Context, p domain.Principal) (bool, error) {
	return s.admins[p], nil
}

func (s *stubAccessService) Assign(_ context.Context, caller, _ domain.Principal, _ domain.Role) error {
	if !s.admins[caller] {
		return domain.ErrForbidden
	}
	return nil
}

type stubMediaService struct{}

func (stubMediaService) Upload(_ context.Context, _ string, data []byte) (domain.Image, error) {
	if len(data) == 0 {
		return domain.Image{}, domain.Invalid("image", "image is empty")
	}
	return domain.Image{ID: "b1", URL: "/blobs/b1"}, nil
}

func (stubMediaService) Get(_ context.Context, id string) (*blobrepo.Object, error) {
	if id != "b1" {
		return nil, domain.ErrNotFound
	}
	return &blobrepo.Object{ID: id, ContentType: "image/png", Data: []byte("png")}, nil
}

func (stubMediaService) Delete(_ context.Context, id string) error {
	if id != "b1" {
		return domain.ErrNotFound
	}
	return nil
}

const (
	adminPrincipal = domain.Principal("11111111-1111-1111-1111-111111111111")
	userPrincipal  = domain.Principal("22222222-2222-2222-2222-222222222222")
)

func stubDeps() Deps {
	return Deps{
		AuthSvc: &stubAuthService{tokens: map[string]domain.Principal{
			"admin-token": adminPrincipal,
			"user-token":  userPrincipal,
		}},
		ProductSvc:  &stubProductService{},
		CategorySvc: stubCategoryService{},
		CartSvc:     &stubCartService{},
		OrderSvc:    &stubOrderService{},
		ReviewSvc:   &stubReviewService{},
		ProfileSvc:  &stubProfileService{profiles: map[domain.Principal]domain.UserProfile{}},
		AccessSvc:   &stubAccessService{admins: map[domain.Principal]bool{adminPrincipal: true}},
		MediaSvc:    stubMediaService{},
	}
}
