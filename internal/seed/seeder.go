package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/kidsinhalf/mayocat-shop/pkg/database"
	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
	"github.com/kidsinhalf/mayocat-shop/pkg/httpclient"
)

// Summary counts what a run did.
type Summary struct {
	Categories  int
	Created     int
	Existing    int
	Failed      int
	Assigned    int
	Attachments int
}

// Seeder writes a Plan using the API for products and SQL for the rest.
type Seeder struct {
	api    *APIClient
	db     database.DBTX
	logger *slog.Logger
}

// NewSeeder creates a new seeder.
func NewSeeder(api *APIClient, db database.DBTX, logger *slog.Logger) *Seeder {
	return &Seeder{api: api, db: db, logger: logger}
}

// Run seeds plan. Products that already exist are left as they are but
// still get their category. A single product failure is logged and
// counted; an open circuit or a database error stops the run.
func (s *Seeder) Run(ctx context.Context, plan Plan) (Summary, error) {
	var sum Summary

	tenantID, err := EnsureTenant(ctx, s.db, plan.TenantSlug, plan.TenantName)
	if err != nil {
		return sum, err
	}

	categoryIDs := make(map[string]string, len(plan.Categories))
	for i, c := range plan.Categories {
		id, err := UpsertCategory(ctx, s.db, tenantID, c, i)
		if err != nil {
			return sum, err
		}
		categoryIDs[c.Slug] = id
		sum.Categories++
	}

	for _, p := range plan.Products {
		productSlug, created, err := s.createProduct(ctx, p)
		switch {
		case errors.Is(err, httpclient.ErrCircuitOpen):
			return sum, fmt.Errorf("catalog API unavailable: %w", err)
		case err != nil:
			sum.Failed++
			s.logger.WarnContext(ctx, "failed to seed product",
				slog.String("title", p.Title),
				slog.String("error", err.Error()),
			)
			continue
		case created:
			sum.Created++
		default:
			sum.Existing++
		}

		if categoryID, ok := categoryIDs[p.Category]; ok {
			assigned, err := AssignCategory(ctx, s.db, tenantID, productSlug, categoryID)
			if err != nil {
				return sum, err
			}
			if assigned {
				sum.Assigned++
			}
		}

		if created && p.Datasheet {
			if err := s.api.UploadAttachment(ctx, productSlug, productSlug+".txt", datasheet(p)); err != nil {
				s.logger.WarnContext(ctx, "failed to upload datasheet",
					slog.String("slug", productSlug),
					slog.String("error", err.Error()),
				)
				continue
			}
			sum.Attachments++
		}
	}

	s.logger.InfoContext(ctx, "seeding finished",
		slog.String("tenant", plan.TenantSlug),
		slog.Int("categories", sum.Categories),
		slog.Int("created", sum.Created),
		slog.Int("existing", sum.Existing),
		slog.Int("failed", sum.Failed),
		slog.Int("assigned", sum.Assigned),
		slog.Int("attachments", sum.Attachments),
	)
	return sum, nil
}

// createProduct returns the slug the catalog stored p under and whether
// this call created it.
func (s *Seeder) createProduct(ctx context.Context, p Product) (string, bool, error) {
	location, err := s.api.CreateProduct(ctx, p)
	if errors.Is(err, apperrors.ErrAlreadyExists) && p.Slug != "" {
		return p.Slug, false, nil
	}
	if err != nil {
		return "", false, err
	}

	slug := path.Base(location)
	if location == "" || slug == "/" || slug == "." {
		return "", false, fmt.Errorf("create product %q: missing Location header", p.Title)
	}
	s.logger.DebugContext(ctx, "product created", slog.String("location", location))
	return slug, true, nil
}
