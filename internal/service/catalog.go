package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kidsinhalf/mayocat-shop/internal/domain"
	"github.com/kidsinhalf/mayocat-shop/internal/event"
	"github.com/kidsinhalf/mayocat-shop/internal/repository"
	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
	"github.com/kidsinhalf/mayocat-shop/pkg/slug"
	"github.com/kidsinhalf/mayocat-shop/pkg/validator"
)

const maxSlugLength = 255

// errNoTenant is returned when a catalog call is made outside a tenant-scoped request.
var errNoTenant = errors.New("no tenant in request context")

// CatalogService implements the business logic for products and their categories.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	producer   *event.Producer
	logger     *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		producer:   producer,
		logger:     logger,
	}
}

// FindAllProducts returns up to limit products starting at offset, in catalog order.
func (s *CatalogService) FindAllProducts(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.products.List(ctx, tenant.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// FindUncategorizedProducts returns every product without a category.
func (s *CatalogService) FindUncategorizedProducts(ctx context.Context) ([]domain.Product, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.products.ListUncategorized(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("list uncategorized products: %w", err)
	}
	return products, nil
}

// FindProductBySlug retrieves a product by its slug.
func (s *CatalogService) FindProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetBySlug(ctx, tenant.ID, slug)
	if err != nil {
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	return product, nil
}

// FindCategoriesForProduct returns the categories the product belongs to.
func (s *CatalogService) FindCategoriesForProduct(ctx context.Context, product *domain.Product) ([]domain.Category, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.categories.ListForProduct(ctx, tenant.ID, product.ID)
	if err != nil {
		return nil, fmt.Errorf("list categories for product: %w", err)
	}
	return categories, nil
}

// CreateProduct validates and stores a new product at the end of the
// catalog order. A missing slug is derived from the title.
func (s *CatalogService) CreateProduct(ctx context.Context, input *domain.Product) (*domain.Product, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:        uuid.New().String(),
		TenantID:  tenant.ID,
		Slug:      input.Slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	product.ApplyUpdate(input)

	if product.Slug == "" {
		product.Slug = generateSlug(product.Title)
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if product.Slug == "" {
		return nil, apperrors.Validation("product is invalid", map[string]string{
			"slug": "could not be derived from the title",
		})
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
		slog.Int("position", product.Position),
	)

	return product, nil
}

// UpdateProduct replaces the mutable fields of the product named by
// input.Slug. The slug itself never changes.
func (s *CatalogService) UpdateProduct(ctx context.Context, input *domain.Product) (*domain.Product, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{TenantID: tenant.ID, Slug: input.Slug}
	product.ApplyUpdate(input)

	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return product, nil
}

// MoveProduct places the product immediately before or after anchor.
func (s *CatalogService) MoveProduct(ctx context.Context, slug, anchor string, pos domain.InsertPosition) error {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return err
	}

	if err := s.products.Move(ctx, tenant.ID, slug, anchor, pos); err != nil {
		return fmt.Errorf("move product: %w", err)
	}

	if err := s.producer.PublishProductMoved(ctx, slug, anchor, pos); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.moved event",
			slog.String("slug", slug),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product moved",
		slog.String("slug", slug),
		slog.String("anchor", anchor),
		slog.String("position", pos.String()),
	)

	return nil
}

func tenantFrom(ctx context.Context) (*domain.Tenant, error) {
	tenant, ok := domain.TenantFromContext(ctx)
	if !ok {
		return nil, errNoTenant
	}
	return tenant, nil
}

func validateProduct(p *domain.Product) error {
	err := validator.Validate(p)
	if err == nil {
		return nil
	}
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return apperrors.Validation("product is invalid", valErr.Fields())
	}
	return fmt.Errorf("validate product: %w", err)
}

// generateSlug derives a slug from title, cut to the maximum slug length.
func generateSlug(title string) string {
	s := slug.Generate(title)
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	return s
}
