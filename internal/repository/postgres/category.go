package postgres

import (
	"context"
	"fmt"

	"github.com/kidsinhalf/mayocat-shop/internal/domain"
	"github.com/kidsinhalf/mayocat-shop/pkg/database"
)

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	pool database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// ListForProduct returns the categories the product is assigned to.
func (r *CategoryRepository) ListForProduct(ctx context.Context, tenantID, productID string) ([]domain.Category, error) {
	query := `
		SELECT c.id, c.tenant_id, c.slug, c.title, c.position
		FROM categories c
		JOIN product_categories pc ON pc.category_id = c.id
		WHERE c.tenant_id = $1 AND pc.product_id = $2
		ORDER BY c.position, c.slug`

	rows, err := r.pool.Query(ctx, query, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("list categories for product: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Slug, &c.Title, &c.Position); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	return categories, nil
}
