package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kidsinhalf/mayocat-shop/internal/domain"
	"github.com/kidsinhalf/mayocat-shop/pkg/database"
	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
)

// TenantRepository implements repository.TenantRepository using PostgreSQL.
type TenantRepository struct {
	pool database.DBTX
}

func NewTenantRepository(pool database.DBTX) *TenantRepository {
	return &TenantRepository{pool: pool}
}

// GetBySlug retrieves a tenant by its slug.
func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := r.pool.QueryRow(ctx, `SELECT id, slug, name FROM tenants WHERE slug = $1`, slug).
		Scan(&t.ID, &t.Slug, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("tenant", slug)
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}
