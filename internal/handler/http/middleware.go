package http

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/kidsinhalf/mayocat-shop/internal/domain"
	"github.com/kidsinhalf/mayocat-shop/internal/repository"
	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
	"github.com/kidsinhalf/mayocat-shop/pkg/httputil"
	"github.com/kidsinhalf/mayocat-shop/pkg/logger"
	"github.com/kidsinhalf/mayocat-shop/pkg/middleware"
)

// TenantHeader selects the shop a request is addressed to.
const TenantHeader = "X-Tenant"

// ResolveTenant loads the tenant named by the X-Tenant header, or
// defaultTenant when the header is absent, and stores it in the request
// context. Unknown tenants get a 404.
func ResolveTenant(tenants repository.TenantRepository, defaultTenant string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug := strings.TrimSpace(r.Header.Get(TenantHeader))
			if slug == "" {
				slug = defaultTenant
			}

			tenant, err := tenants.GetBySlug(r.Context(), slug)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					httputil.WriteError(w, r, &apperrors.AppError{
						Code:    "TENANT_NOT_FOUND",
						Message: "no tenant named " + slug,
						Status:  http.StatusNotFound,
						Err:     err,
					}, nil)
					return
				}
				httputil.WriteError(w, r, err, nil)
				return
			}

			ctx := domain.WithTenant(r.Context(), tenant)
			ctx = logger.WithTenant(ctx, tenant.Slug)
			if l := logger.FromContext(ctx); l != slog.Default() {
				ctx = logger.NewContext(ctx, l.With(slog.String("tenant", tenant.Slug)))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenantMatch rejects callers whose token was issued for another
// tenant. It must be mounted after ResolveTenant and Auth.
func RequireTenantMatch(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		tenant, ok := domain.TenantFromContext(r.Context())
		if claims == nil || !ok || claims.Tenant != tenant.Slug {
			httputil.WriteError(w, r, apperrors.Forbidden("token is not valid for this tenant"), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ContentType rejects request bodies whose media type is not one of allowed.
// Requests without a Content-Type header pass through.
func ContentType(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !hasMediaType(ct, allowed) {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be one of: " + strings.Join(allowed, ", "),
					},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// hasMediaType compares the media type of ct, parameters stripped, to
// allowed without regard to case. An unparseable header matches nothing.
func hasMediaType(ct string, allowed []string) bool {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(mediaType, a) {
			return true
		}
	}
	return false
}
