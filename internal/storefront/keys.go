package storefront

import (
	"storefront/internal/cache"
	"storefront/internal/domain"

	"github.com/samber/lo"
)

var (
	KeyProducts   = cache.NewKey("products")
	KeyCategories = cache.NewKey("categories")
	KeyCart       = cache.NewKey("cart")
	KeyOrders     = cache.NewKey("orders")
	KeyAllOrders  = cache.NewKey("allOrders")
	KeyProfile    = cache.NewKey("currentUserProfile")
	KeyIsAdmin    = cache.NewKey("isAdmin")
	KeyRole       = cache.NewKey("role")
)

// SearchKey shares the products resource so product writes reach it.
func SearchKey(text string) cache.Key { return cache.NewKey("products", "search", text) }

func ProductKey(id uint64) cache.Key { return cache.NewKey("product", id) }

func CategoryKey(id uint64) cache.Key { return cache.NewKey("category", id) }

func ReviewsKey(productID uint64) cache.Key { return cache.NewKey("reviews", productID) }

func UserProfileKey(p domain.Principal) cache.Key { return cache.NewKey("userProfile", p) }

// Mutation names a write the storefront can perform.
type Mutation string

const (
	MutCreateProduct  Mutation = "createProduct"
	MutUpdateProduct  Mutation = "updateProduct"
	MutDeleteProduct  Mutation = "deleteProduct"
	MutCreateCategory Mutation = "createCategory"
	MutAddToCart      Mutation = "addToCart"
	MutUpdateCartItem Mutation = "updateCartItem"
	MutRemoveFromCart Mutation = "removeFromCart"
	MutClearCart      Mutation = "clearCart"
	MutPlaceOrder     Mutation = "placeOrder"
	MutAddReview      Mutation = "addReview"
	MutSaveProfile    Mutation = "saveProfile"
	MutAssignRole     Mutation = "assignRole"
	MutUploadBlob     Mutation = "uploadBlob"
)

var catalogTargets = []cache.Target{cache.Resource("products"), cache.Resource("product")}

var cartTargets = []cache.Target{cache.Exact(KeyCart)}

// policy lists what each successful mutation invalidates. Reviews of the
// reviewed product are added per call.
var policy = map[Mutation][]cache.Target{
	MutCreateProduct:  catalogTargets,
	MutUpdateProduct:  catalogTargets,
	MutDeleteProduct:  catalogTargets,
	MutCreateCategory: {cache.Resource("categories"), cache.Resource("category")},
	MutAddToCart:      cartTargets,
	MutUpdateCartItem: cartTargets,
	MutRemoveFromCart: cartTargets,
	MutClearCart:      cartTargets,
	MutPlaceOrder:     {cache.Exact(KeyCart), cache.Exact(KeyOrders), cache.Exact(KeyAllOrders)},
	MutAddReview:      catalogTargets,
	MutSaveProfile:    {cache.Exact(KeyProfile), cache.Resource("userProfile")},
	MutAssignRole:     {cache.Exact(KeyRole), cache.Exact(KeyIsAdmin)},
	MutUploadBlob:     nil,
}

// Invalidates returns the targets a successful m invalidates, plus extra.
func Invalidates(m Mutation, extra ...cache.Target) []cache.Target {
	return lo.Flatten([][]cache.Target{policy[m], extra})
}
