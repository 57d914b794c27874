package storefront

import (
	"strings"

	"storefront/internal/blob"
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

const AnonymousReviewer = "Anonymous"

// ProductDraft is the admin product form as entered. Price is kept as text
// so a missing price is distinguishable from zero.
type ProductDraft struct {
	Name        string
	Description string
	Price       string
	CategoryID  uint64
	// Image is required on create; on update a nil image keeps the stored one.
	Image *blob.External
}

func (d ProductDraft) input() (domain.ProductInput, error) {
	in := domain.ProductInput{
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
		CategoryID:  d.CategoryID,
	}
	if in.Name == "" {
		return in, domain.Invalid("name", "is required")
	}
	if in.Description == "" {
		return in, domain.Invalid("description", "is required")
	}
	raw := strings.TrimSpace(d.Price)
	if raw == "" {
		return in, domain.Invalid("price", "is required")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return in, domain.Invalid("price", "must be a number")
	}
	if price.IsNegative() {
		return in, domain.Invalid("price", "must not be negative")
	}
	in.Price = price.InexactFloat64()
	if in.CategoryID == 0 {
		return in, domain.Invalid("category", "is required")
	}
	return in, nil
}

// CheckoutForm is what the visitor submits to place an order.
type CheckoutForm struct {
	CustomerName  string
	Address       string
	Phone         string
	PaymentMethod string
}

func (f CheckoutForm) request() (domain.OrderRequest, error) {
	req := domain.OrderRequest{
		CustomerName:  strings.TrimSpace(f.CustomerName),
		Address:       strings.TrimSpace(f.Address),
		Phone:         strings.TrimSpace(f.Phone),
		PaymentMethod: strings.ToUpper(strings.TrimSpace(f.PaymentMethod)),
	}
	switch {
	case req.CustomerName == "":
		return req, domain.Invalid("customerName", "is required")
	case req.Phone == "":
		return req, domain.Invalid("phone", "is required")
	case req.Address == "":
		return req, domain.Invalid("address", "is required")
	}
	switch req.PaymentMethod {
	case "":
		req.PaymentMethod = domain.PaymentCOD
	case domain.PaymentCOD, domain.PaymentUPI:
	default:
		return req, domain.Invalid("paymentMethod", "must be COD or UPI")
	}
	return req, nil
}

// ReviewForm is a review as entered. An empty reviewer falls back to the
// caller's profile name, then to AnonymousReviewer.
type ReviewForm struct {
	ProductID uint64
	Reviewer  string
	Rating    uint8
	Comment   string
}

func (f ReviewForm) review() (domain.Review, error) {
	r := domain.Review{
		ProductID: f.ProductID,
		Reviewer:  strings.TrimSpace(f.Reviewer),
		Rating:    f.Rating,
		Comment:   strings.TrimSpace(f.Comment),
	}
	if r.Comment == "" {
		return r, domain.Invalid("comment", "is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return r, domain.Invalid("rating", "must be between 1 and 5")
	}
	return r, nil
}
