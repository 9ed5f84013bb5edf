package domain

import "time"

// Product is a catalog item. Slug is unique within a tenant and never
// changes once assigned. Position orders a tenant's products.
type Product struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"-"`
	Slug        string         `json:"slug" validate:"omitempty,max=255,slug"`
	Title       string         `json:"title" validate:"required,max=255"`
	Description string         `json:"description" validate:"max=10000"`
	OnShelf     bool           `json:"onShelf"`
	Price       *int64         `json:"price,omitempty" validate:"omitempty,gte=0"`
	Stock       *int           `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Position    int            `json:"position"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ApplyUpdate copies the mutable fields of in onto p. Identity, slug,
// position and timestamps are left alone.
func (p *Product) ApplyUpdate(in *Product) {
	p.Title = in.Title
	p.Description = in.Description
	p.OnShelf = in.OnShelf
	p.Price = in.Price
	p.Stock = in.Stock
	p.Metadata = in.Metadata
}

// Category groups products. Products and categories are many-to-many.
type Category struct {
	ID       string `json:"id"`
	TenantID string `json:"-"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}
