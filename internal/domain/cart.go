package domain

type CartItem struct {
	ProductID uint64 `json:"productId" yaml:"productId"`
	Quantity  uint64 `json:"quantity" yaml:"quantity"`
}

// OrderItem captures the unit price at the moment the order was placed.
type OrderItem struct {
	ProductID uint64  `json:"productId" yaml:"productId"`
	Quantity  uint64  `json:"quantity" yaml:"quantity"`
	Price     float64 `json:"price" yaml:"price"`
}

type Order struct {
	ID            uint64      `json:"id" yaml:"id"`
	Customer      Principal   `json:"customer" yaml:"customer"`
	CustomerName  string      `json:"customerName" yaml:"customerName"`
	Address       string      `json:"address" yaml:"address"`
	Phone         string      `json:"phone" yaml:"phone"`
	PaymentMethod string      `json:"paymentMethod" yaml:"paymentMethod"`
	Items         []OrderItem `json:"items" yaml:"items"`
	Total         float64     `json:"total" yaml:"total"`
	Timestamp     int64       `json:"timestamp" yaml:"timestamp"`
}

// OrderRequest is the checkout form submitted by the caller.
type OrderRequest struct {
	CustomerName  string `json:"customerName" yaml:"customerName"`
	Address       string `json:"address" yaml:"address"`
	Phone         string `json:"phone" yaml:"phone"`
	PaymentMethod string `json:"paymentMethod" yaml:"paymentMethod"`
}

const (
	PaymentCOD = "COD"
	PaymentUPI = "UPI"
)
