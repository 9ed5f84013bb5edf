package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kidsinhalf/mayocat-shop/pkg/database"
)

// The catalog API has no category endpoints, so categories and their
// product assignments are written straight to the database.

// EnsureTenant creates the tenant if needed and returns its id.
func EnsureTenant(ctx context.Context, db database.DBTX, slug, name string) (string, error) {
	var id string
	err := db.QueryRow(ctx,
		`INSERT INTO tenants (id, slug, name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		uuid.New().String(), slug, name,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("ensure tenant %q: %w", slug, err)
	}
	return id, nil
}

// UpsertCategory creates or renames a category and returns its id.
func UpsertCategory(ctx context.Context, db database.DBTX, tenantID string, c Category, position int) (string, error) {
	var id string
	err := db.QueryRow(ctx,
		`INSERT INTO categories (id, tenant_id, slug, title, position)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (tenant_id, slug) DO UPDATE SET title = EXCLUDED.title, position = EXCLUDED.position
		 RETURNING id`,
		uuid.New().String(), tenantID, c.Slug, c.Title, position,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert category %q: %w", c.Slug, err)
	}
	return id, nil
}

// AssignCategory links the product with productSlug to categoryID. It
// reports whether a new link was written.
func AssignCategory(ctx context.Context, db database.DBTX, tenantID, productSlug, categoryID string) (bool, error) {
	tag, err := db.Exec(ctx,
		`INSERT INTO product_categories (product_id, category_id)
		 SELECT id, $3 FROM products WHERE tenant_id = $1 AND slug = $2
		 ON CONFLICT DO NOTHING`,
		tenantID, productSlug, categoryID,
	)
	if err != nil {
		return false, fmt.Errorf("assign %q to category: %w", productSlug, err)
	}
	return tag.RowsAffected() > 0, nil
}
