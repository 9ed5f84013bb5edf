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

const attachmentColumns = `id, tenant_id, slug, extension, title, content_type, size, storage_key, parent, created_at`

// AttachmentRepository implements repository.AttachmentRepository using PostgreSQL.
type AttachmentRepository struct {
	pool database.DBTX
}

// NewAttachmentRepository creates a new PostgreSQL-backed attachment repository.
func NewAttachmentRepository(pool database.DBTX) *AttachmentRepository {
	return &AttachmentRepository{pool: pool}
}

// Create inserts the attachment metadata row.
func (r *AttachmentRepository) Create(ctx context.Context, a *domain.Attachment) (err error) {
	query := `
		INSERT INTO attachments (id, tenant_id, slug, extension, title, content_type, size, storage_key, parent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ctx, end := database.TraceQuery(ctx, "CreateAttachment", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		a.ID,
		a.TenantID,
		a.Slug,
		a.Extension,
		a.Title,
		a.ContentType,
		a.Size,
		a.StorageKey,
		a.Parent.String(),
		a.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("attachment", "slug", a.Slug)
		}
		return fmt.Errorf("insert attachment: %w", err)
	}

	return nil
}

// GetBySlug retrieves an attachment by its slug.
func (r *AttachmentRepository) GetBySlug(ctx context.Context, tenantID, slug string) (*domain.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE tenant_id = $1 AND slug = $2`

	a, err := scanAttachment(r.pool.QueryRow(ctx, query, tenantID, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("attachment", slug)
		}
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	return a, nil
}

// ListByParent returns the attachments of parent in creation order.
func (r *AttachmentRepository) ListByParent(ctx context.Context, tenantID string, parent domain.EntityReference) ([]domain.Attachment, error) {
	query := `
		SELECT ` + attachmentColumns + `
		FROM attachments
		WHERE tenant_id = $1 AND parent = $2
		ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, tenantID, parent.String())
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	attachments := []domain.Attachment{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attachment row: %w", err)
		}
		attachments = append(attachments, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachment rows: %w", err)
	}

	return attachments, nil
}

func scanAttachment(row pgx.Row) (*domain.Attachment, error) {
	var (
		a      domain.Attachment
		parent string
	)

	if err := row.Scan(
		&a.ID,
		&a.TenantID,
		&a.Slug,
		&a.Extension,
		&a.Title,
		&a.ContentType,
		&a.Size,
		&a.StorageKey,
		&parent,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}

	ref, err := domain.ParseEntityReference(parent)
	if err != nil {
		return nil, err
	}
	a.Parent = ref

	return &a, nil
}
