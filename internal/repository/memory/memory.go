// Package memory provides in-process implementations of the catalog
// repositories. All repositories obtained from one Store share a single lock,
// so cross-entity reads such as "products without a category" are consistent.
package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/kidsinhalf/mayocat-shop/internal/domain"
	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
	"github.com/kidsinhalf/mayocat-shop/pkg/pagination"
)

// Store holds tenants, products, categories and attachments in memory.
type Store struct {
	mu sync.RWMutex

	tenants     map[string]*domain.Tenant             // by slug
	products    map[string]map[string]*domain.Product // tenant ID -> slug
	categories  map[string]*domain.Category           // by ID
	assignments map[string]map[string]struct{}        // product ID -> category IDs
	attachments map[string][]*domain.Attachment       // tenant ID, creation order
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tenants:     make(map[string]*domain.Tenant),
		products:    make(map[string]map[string]*domain.Product),
		categories:  make(map[string]*domain.Category),
		assignments: make(map[string]map[string]struct{}),
		attachments: make(map[string][]*domain.Attachment),
	}
}

// AddTenant registers a tenant.
func (s *Store) AddTenant(t domain.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.Slug] = &t
}

// AddCategory registers a category.
func (s *Store) AddCategory(c domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = &c
}

// AssignCategory links a product to a category.
func (s *Store) AssignCategory(productID, categoryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.assignments[productID]
	if !ok {
		set = make(map[string]struct{})
		s.assignments[productID] = set
	}
	set[categoryID] = struct{}{}
}

// Products returns the store's product repository.
func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

// Categories returns the store's category repository.
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }

// Attachments returns the store's attachment repository.
func (s *Store) Attachments() *AttachmentRepository { return &AttachmentRepository{s: s} }

// Tenants returns the store's tenant repository.
func (s *Store) Tenants() *TenantRepository { return &TenantRepository{s: s} }

// --- Products ---

// ProductRepository implements repository.ProductRepository in memory.
type ProductRepository struct {
	s *Store
}

// Create stores p at the end of its tenant's order. A taken slug is an
// AlreadyExists error.
func (r *ProductRepository) Create(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	bySlug, ok := r.s.products[p.TenantID]
	if !ok {
		bySlug = make(map[string]*domain.Product)
		r.s.products[p.TenantID] = bySlug
	}
	if _, exists := bySlug[p.Slug]; exists {
		return apperrors.AlreadyExists("product", "slug", p.Slug)
	}

	last := 0
	for _, existing := range bySlug {
		last = max(last, existing.Position)
	}
	p.Position = last + 1

	bySlug[p.Slug] = copyProduct(p)
	return nil
}

// GetBySlug retrieves a copy of the product with slug.
func (r *ProductRepository) GetBySlug(_ context.Context, tenantID, slug string) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[tenantID][slug]
	if !ok {
		return nil, apperrors.NotFound("product", slug)
	}
	return copyProduct(p), nil
}

// List returns up to limit products starting at offset, in catalog order.
func (r *ProductRepository) List(_ context.Context, tenantID string, limit, offset int) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ordered := r.s.orderedProducts(tenantID)
	start, end := pagination.Params{Number: limit, Offset: offset}.Window(len(ordered))
	out := make([]domain.Product, 0, end-start)
	for _, p := range ordered[start:end] {
		out = append(out, *copyProduct(p))
	}
	return out, nil
}

// ListUncategorized returns the products without any category, in catalog order.
func (r *ProductRepository) ListUncategorized(_ context.Context, tenantID string) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Product{}
	for _, p := range r.s.orderedProducts(tenantID) {
		if len(r.s.assignments[p.ID]) == 0 {
			out = append(out, *copyProduct(p))
		}
	}
	return out, nil
}

// Update replaces the mutable fields of the product named by p.Slug and
// fills p with the stored result.
func (r *ProductRepository) Update(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.products[p.TenantID][p.Slug]
	if !ok {
		return apperrors.NotFound("product", p.Slug)
	}

	p.UpdatedAt = time.Now().UTC()
	stored.ApplyUpdate(copyProduct(p))
	stored.UpdatedAt = p.UpdatedAt
	p.ID = stored.ID
	p.Position = stored.Position
	p.CreatedAt = stored.CreatedAt
	return nil
}

// Move places slug immediately before or after anchor.
func (r *ProductRepository) Move(_ context.Context, tenantID, slug, anchor string, pos domain.InsertPosition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ordered := r.s.orderedProducts(tenantID)
	slugs := make([]string, len(ordered))
	current := make(map[string]int, len(ordered))
	for i, p := range ordered {
		slugs[i] = p.Slug
		current[p.Slug] = p.Position
	}

	order, err := domain.Reorder(slugs, slug, anchor, pos)
	if err != nil {
		return err
	}
	for s, n := range domain.Renumber(order, current) {
		r.s.products[tenantID][s].Position = n
	}
	return nil
}

// orderedProducts returns the tenant's products by position, creation time
// then ID. The caller must hold the lock.
func (s *Store) orderedProducts(tenantID string) []*domain.Product {
	out := slices.Collect(maps.Values(s.products[tenantID]))
	slices.SortFunc(out, func(a, b *domain.Product) int {
		return cmp.Or(
			cmp.Compare(a.Position, b.Position),
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out
}

func copyProduct(p *domain.Product) *domain.Product {
	c := *p
	if p.Price != nil {
		price := *p.Price
		c.Price = &price
	}
	if p.Stock != nil {
		stock := *p.Stock
		c.Stock = &stock
	}
	c.Metadata = maps.Clone(p.Metadata)
	return &c
}

// --- Categories ---

// CategoryRepository implements repository.CategoryRepository in memory.
type CategoryRepository struct {
	s *Store
}

// ListForProduct returns the categories of a product ordered by position.
func (r *CategoryRepository) ListForProduct(_ context.Context, tenantID, productID string) ([]domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Category{}
	for id := range r.s.assignments[productID] {
		if c, ok := r.s.categories[id]; ok && c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	slices.SortFunc(out, func(a, b domain.Category) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.Slug, b.Slug))
	})
	return out, nil
}

// --- Attachments ---

// AttachmentRepository implements repository.AttachmentRepository in memory.
type AttachmentRepository struct {
	s *Store
}

// Create records a. A slug already used in the tenant is an AlreadyExists error.
func (r *AttachmentRepository) Create(_ context.Context, a *domain.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.attachments[a.TenantID] {
		if existing.Slug == a.Slug {
			return apperrors.AlreadyExists("attachment", "slug", a.Slug)
		}
	}
	c := *a
	r.s.attachments[a.TenantID] = append(r.s.attachments[a.TenantID], &c)
	return nil
}

// GetBySlug retrieves the attachment with slug.
func (r *AttachmentRepository) GetBySlug(_ context.Context, tenantID, slug string) (*domain.Attachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.attachments[tenantID] {
		if a.Slug == slug {
			c := *a
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("attachment", slug)
}

// ListByParent returns the attachments of parent in creation order.
func (r *AttachmentRepository) ListByParent(_ context.Context, tenantID string, parent domain.EntityReference) ([]domain.Attachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	key := parent.String()
	out := []domain.Attachment{}
	for _, a := range r.s.attachments[tenantID] {
		if a.Parent.String() == key {
			out = append(out, *a)
		}
	}
	return out, nil
}

// --- Tenants ---

// TenantRepository implements repository.TenantRepository in memory.
type TenantRepository struct {
	s *Store
}

// GetBySlug retrieves the tenant with slug.
func (r *TenantRepository) GetBySlug(_ context.Context, slug string) (*domain.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tenants[slug]
	if !ok {
		return nil, apperrors.NotFound("tenant", slug)
	}
	c := *t
	return &c, nil
}
