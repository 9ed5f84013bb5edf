package repository

import (
	"context"

	"github.com/kidsinhalf/mayocat-shop/internal/domain"
)

// ProductRepository defines product persistence for a single tenant at a time.
type ProductRepository interface {
	// Create inserts p at the end of the tenant's order and sets p.Position.
	// A duplicate slug yields an AlreadyExists error.
	Create(ctx context.Context, p *domain.Product) error

	// GetBySlug returns the product or a NotFound error.
	GetBySlug(ctx context.Context, tenantID, slug string) (*domain.Product, error)

	// List returns up to limit products starting at offset, in position order.
	List(ctx context.Context, tenantID string, limit, offset int) ([]domain.Product, error)

	// ListUncategorized returns every product with no category, in position order.
	ListUncategorized(ctx context.Context, tenantID string) ([]domain.Product, error)

	// Update replaces the mutable fields of the product identified by
	// p.TenantID and p.Slug. A missing product yields a NotFound error.
	Update(ctx context.Context, p *domain.Product) error

	// Move atomically places slug immediately before or after anchor.
	Move(ctx context.Context, tenantID, slug, anchor string, pos domain.InsertPosition) error
}

// CategoryRepository provides read access to the category taxonomy.
type CategoryRepository interface {
	ListForProduct(ctx context.Context, tenantID, productID string) ([]domain.Category, error)
}

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	// Create inserts a. A slug already used in the tenant yields an
	// AlreadyExists error.
	Create(ctx context.Context, a *domain.Attachment) error

	GetBySlug(ctx context.Context, tenantID, slug string) (*domain.Attachment, error)

	// ListByParent returns the attachments of parent in creation order.
	ListByParent(ctx context.Context, tenantID string, parent domain.EntityReference) ([]domain.Attachment, error)
}

// TenantRepository resolves tenants by slug.
type TenantRepository interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
}
