package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kidsinhalf/mayocat-shop/internal/domain"
	"github.com/kidsinhalf/mayocat-shop/pkg/database"
	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
)

const productColumns = `id, tenant_id, slug, title, description, on_shelf, price, stock, metadata, position, created_at, updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product after the tenant's last product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	metadataJSON, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO products (id, tenant_id, slug, title, description, on_shelf, price, stock, metadata, position, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE(MAX(position), 0) + 1, $10, $11
		FROM products WHERE tenant_id = $2
		RETURNING position`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query,
		p.ID,
		p.TenantID,
		p.Slug,
		p.Title,
		p.Description,
		p.OnShelf,
		p.Price,
		p.Stock,
		metadataJSON,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.Position)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetBySlug retrieves a product by its slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, tenantID, slug string) (_ *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND slug = $2`

	ctx, end := database.TraceQuery(ctx, "GetProductBySlug", query)
	defer func() { end(err) }()

	p, err := scanProduct(r.pool.QueryRow(ctx, query, tenantID, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", slug)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// List returns a window of the tenant's products in position order.
func (r *ProductRepository) List(ctx context.Context, tenantID string, limit, offset int) (_ []domain.Product, err error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE tenant_id = $1
		ORDER BY position, created_at, id
		LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collectProducts(rows)
}

// ListUncategorized returns the products that belong to no category.
func (r *ProductRepository) ListUncategorized(ctx context.Context, tenantID string) (_ []domain.Product, err error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		WHERE p.tenant_id = $1
		  AND NOT EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.id)
		ORDER BY p.position, p.created_at, p.id`

	ctx, end := database.TraceQuery(ctx, "ListUncategorizedProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list uncategorized products: %w", err)
	}
	return collectProducts(rows)
}

// Update replaces the mutable fields of an existing product and refreshes
// p with the stored identity and position.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	metadataJSON, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET title = $1, description = $2, on_shelf = $3, price = $4, stock = $5,
		    metadata = $6, updated_at = $7
		WHERE tenant_id = $8 AND slug = $9
		RETURNING id, position, created_at`

	ctx, end := database.TraceQuery(ctx, "UpdateProduct", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query,
		p.Title,
		p.Description,
		p.OnShelf,
		p.Price,
		p.Stock,
		metadataJSON,
		p.UpdatedAt,
		p.TenantID,
		p.Slug,
	).Scan(&p.ID, &p.Position, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("product", p.Slug)
		}
		return fmt.Errorf("update product: %w", err)
	}

	return nil
}

// Move places slug next to anchor. The tenant's product rows stay locked
// until the new positions are written.
func (r *ProductRepository) Move(ctx context.Context, tenantID, slug, anchor string, pos domain.InsertPosition) (err error) {
	query := `
		SELECT slug, position
		FROM products
		WHERE tenant_id = $1
		ORDER BY position, created_at, id
		FOR UPDATE`

	ctx, end := database.TraceQuery(ctx, "MoveProduct", query)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, query, tenantID)
	if err != nil {
		return fmt.Errorf("lock products: %w", err)
	}

	var slugs []string
	current := make(map[string]int)
	for rows.Next() {
		var (
			s        string
			position int
		)
		if err := rows.Scan(&s, &position); err != nil {
			rows.Close()
			return fmt.Errorf("scan product position: %w", err)
		}
		slugs = append(slugs, s)
		current[s] = position
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate product positions: %w", err)
	}

	order, err := domain.Reorder(slugs, slug, anchor, pos)
	if err != nil {
		return err
	}

	changed := domain.Renumber(order, current)
	if len(changed) > 0 {
		changedSlugs := make([]string, 0, len(changed))
		positions := make([]int, 0, len(changed))
		for _, s := range order {
			if n, ok := changed[s]; ok {
				changedSlugs = append(changedSlugs, s)
				positions = append(positions, n)
			}
		}

		_, err = tx.Exec(ctx, `
			UPDATE products p
			SET position = v.position, updated_at = NOW()
			FROM unnest($2::text[], $3::int[]) AS v(slug, position)
			WHERE p.tenant_id = $1 AND p.slug = v.slug`,
			tenantID, changedSlugs, positions,
		)
		if err != nil {
			return fmt.Errorf("update positions: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit move: %w", err)
	}
	return nil
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p            domain.Product
		metadataJSON []byte
	)

	if err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.Slug,
		&p.Title,
		&p.Description,
		&p.OnShelf,
		&p.Price,
		&p.Stock,
		&metadataJSON,
		&p.Position,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &p.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return &p, nil
}
