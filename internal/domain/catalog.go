package domain

import "time"

// Image references an uploaded blob by its opaque handle.
type Image struct {
	ID  string `json:"id" yaml:"id"`
	URL string `json:"url" yaml:"url"`
}

type Product struct {
	ID          uint64    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	CategoryID  uint64    `json:"category" yaml:"category"`
	Price       float64   `json:"price" yaml:"price"`
	Rating      float64   `json:"rating" yaml:"rating"`
	Image       Image     `json:"image" yaml:"image"`
	CreatedAt   time.Time `json:"-" yaml:"-"`
}

// ProductInput carries the mutable fields of a product for create and update.
type ProductInput struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
	CategoryID  uint64  `json:"category" yaml:"category"`
	Image       Image   `json:"image" yaml:"image"`
}

type Category struct {
	ID        uint64    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"-" yaml:"-"`
}

type Review struct {
	ProductID uint64 `json:"productId" yaml:"productId"`
	Reviewer  string `json:"reviewer" yaml:"reviewer"`
	Rating    uint8  `json:"rating" yaml:"rating"`
	Comment   string `json:"comment" yaml:"comment"`
}
