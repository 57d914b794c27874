package webserver

import (
	"context"
	"io"
	"log"
	"net/http"
	"strconv"

	"storefront/internal/blob"
	"storefront/internal/domain"
	"storefront/internal/identity"
	"storefront/internal/storefront"
	"storefront/internal/views"

	"github.com/gin-gonic/gin"
)

const maxImageBytes = 8 << 20

// Signer registers new principals.
type Signer interface {
	Signup(ctx context.Context, username, password string) (*domain.Account, error)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	Principal     domain.Principal `json:"principal,omitempty"`
	Username      string           `json:"username,omitempty"`
}

type cartItemRequest struct {
	ProductID uint64 `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type checkoutRequest struct {
	CustomerName  string `json:"customerName"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	PaymentMethod string `json:"paymentMethod"`
}

type reviewRequest struct {
	Reviewer string `json:"reviewer"`
	Rating   uint8  `json:"rating"`
	Comment  string `json:"comment"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type roleRequest struct {
	Role string `json:"role"`
}

func loginHandler(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if !bindJSON(c, &req) {
			return
		}
		id, err := views.Login(c.Request.Context(), visitorFrom(c), identity.Credentials{Username: req.Username, Password: req.Password})
		if err != nil {
			writeActionError(c, err)
			return
		}
		logger.Printf("visitor logged in principal=%s request=%s", id.Principal, c.GetString(requestIDHeader))
		c.JSON(http.StatusOK, sessionResponse{Authenticated: true, Principal: id.Principal, Username: id.Username})
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := visitorFrom(c).Logout(c.Request.Context()); err != nil {
			_ = c.Error(err)
		}
		c.JSON(http.StatusOK, sessionResponse{})
	}
}

func sessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := sessionResponse{}
		if id, ok := visitorFrom(c).Identity().Get(); ok {
			resp = sessionResponse{Authenticated: true, Principal: id.Principal, Username: id.Username}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func signupHandler(signer Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if signer == nil {
			writeError(c, http.StatusNotImplemented, codeUnavailable, "signup is not available")
			return
		}
		var req credentialsRequest
		if !bindJSON(c, &req) {
			return
		}
		acc, err := signer.Signup(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			writeActionError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"principal": acc.Principal, "username": acc.Username})
	}
}

func addCartItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartItemRequest
		if !bindJSON(c, &req) {
			return
		}
		qty := views.ClampQuantity(req.Quantity)
		if err := visitorFrom(c).AddToCart(c.Request.Context(), req.ProductID, qty); err != nil {
			writeActionError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func updateCartItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := uintParam(c, "productId")
		if !ok {
			return
		}
		var req quantityRequest
		if !bindJSON(c, &req) {
			return
		}
		if req.Quantity == nil || *req.Quantity < 0 {
			writeError(c, http.StatusBadRequest, codeInvalidInput, "quantity must be zero or more")
			return
		}
		qty := uint64(*req.Quantity)
		if qty > views.MaxQuantity {
			qty = views.MaxQuantity
		}
		if err := visitorFrom(c).UpdateCartItem(c.Request.Context(), productID, qty); err != nil {
			writeActionError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func removeCartItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := uintParam(c, "productId")
		if !ok {
			return
		}
		if err := visitorFrom(c).RemoveFromCart(c.Request.Context(), productID); err != nil {
			writeActionError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func clearCartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := visitorFrom(c).ClearCart(c.Request.Context()); err != nil {
			writeActionError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func checkoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutRequest
		if !bindJSON(c, &req) {
			return
		}
		id, err := visitorFrom(c).PlaceOrder(c.Request.Context(), storefront.CheckoutForm{
			CustomerName:  req.CustomerName,
			Address:       req.Address,
			Phone:         req.Phone,
			PaymentMethod: req.PaymentMethod,
		})
		if err != nil {
			writeActionError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"orderId": id, "redirect": "/"})
	}
}

func addReviewHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := uintParam(c, "id")
		if !ok {
			return
		}
		var req reviewRequest
		if !bindJSON(c, &req) {
			return
		}
		err := visitorFrom(c).AddReview(c.Request.Context(), storefront.ReviewForm{
			ProductID: productID,
			Reviewer:  req.Reviewer,
			Rating:    req.Rating,
			Comment:   req.Comment,
		})
		if err != nil {
			writeActionError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func saveProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req nameRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := visitorFrom(c).SaveProfile(c.Request.Context(), req.Name); err != nil {
			writeActionError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// productDraft reads the multipart admin product form.
func productDraft(c *gin.Context, logger *log.Logger) (storefront.ProductDraft, error) {
	d := storefront.ProductDraft{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Price:       c.PostForm("price"),
	}
	if raw := c.PostForm("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return d, domain.Invalid("category", "must be a category id")
		}
		d.CategoryID = id
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return d, nil
	}
	if fh.Size > maxImageBytes {
		return d, domain.Invalid("image", "too large")
	}
	f, err := fh.Open()
	if err != nil {
		return d, domain.Invalid("image", "could not read upload")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes))
	if err != nil {
		return d, domain.Invalid("image", "could not read upload")
	}
	if len(data) == 0 {
		return d, nil
	}
	name := fh.Filename
	d.Image = blob.FromBytes(data, fh.Header.Get("Content-Type")).WithUploadProgress(func(p int) {
		if p == 100 {
			logger.Printf("image %s uploaded", name)
		}
	})
	return d, nil
}

func createProductHandler(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := productDraft(c, logger)
		if err != nil {
			writeActionError(c, err)
			return
		}
		id, err := visitorFrom(c).CreateProduct(c.Request.Context(), d)
		if err != nil {
			writeActionError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

func updateProductHandler(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		d, err := productDraft(c, logger)
		if err != nil {
			writeActionError(c, err)
			return
		}
		if err := visitorFrom(c).UpdateProduct(c.Request.Context(), id, d); err != nil {
			writeActionError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func deleteProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		if err := visitorFrom(c).DeleteProduct(c.Request.Context(), id); err != nil {
			writeActionError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func createCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req nameRequest
		if !bindJSON(c, &req) {
			return
		}
		id, err := visitorFrom(c).CreateCategory(c.Request.Context(), req.Name)
		if err != nil {
			writeActionError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

func assignRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req roleRequest
		if !bindJSON(c, &req) {
			return
		}
		role, err := domain.ParseRole(req.Role)
		if err != nil {
			writeActionError(c, err)
			return
		}
		principal := domain.Principal(c.Param("principal"))
		if err := visitorFrom(c).AssignRole(c.Request.Context(), principal, role); err != nil {
			writeActionError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// blobHandler serves image content through the visitor's connection.
func blobHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := visitorFrom(c).BlobBytes(c.Request.Context(), blob.FromURL("/blobs/"+c.Param("id")))
		if err != nil {
			writeActionError(c, err)
			return
		}
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.Data(http.StatusOK, http.DetectContentType(data), data)
	}
}
