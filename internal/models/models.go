package models

import "time"

// DefaultStatus is stamped on new products and used wherever a stored product has no status.
const DefaultStatus = "available"

// Product represents a catalog listing
type Product struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Price       float64   `json:"price" yaml:"price"`
	Description string    `json:"description" yaml:"description"`
	Category    string    `json:"category" yaml:"category"`
	Gender      string    `json:"gender,omitempty" yaml:"gender,omitempty"`
	Status      string    `json:"status" yaml:"status"`
	ImageMain   string    `json:"imageMain" yaml:"imagemain"`
	Images      []string  `json:"images" yaml:"images"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdat"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty" yaml:"updatedat,omitempty"`
}

// NewProduct is the payload for creating a product. Status and timestamps are stamped by the catalog.
type NewProduct struct {
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Gender      string   `json:"gender,omitempty"`
	ImageMain   string   `json:"imageMain"`
	Images      []string `json:"images,omitempty"`
}

// ProductUpdate carries a partial update; nil fields are left untouched
type ProductUpdate struct {
	Title       *string  `json:"title,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Gender      *string  `json:"gender,omitempty"`
	Status      *string  `json:"status,omitempty"`
	ImageMain   *string  `json:"imageMain,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// Category is a named product grouping. Genders share the same shape.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeImages applies the legacy fallback of a single main image when no image list was stored
func (p *Product) NormalizeImages() {
	if len(p.Images) == 0 && p.ImageMain != "" {
		p.Images = []string{p.ImageMain}
	}
	if p.Status == "" {
		p.Status = DefaultStatus
	}
}
