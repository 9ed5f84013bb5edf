package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kidsinhalf/mayocat-shop/internal/auth"
	"github.com/kidsinhalf/mayocat-shop/internal/repository"
	"github.com/kidsinhalf/mayocat-shop/pkg/health"
	"github.com/kidsinhalf/mayocat-shop/pkg/middleware"
)

const (
	mediaJSON      = "application/json"
	mediaForm      = "application/x-www-form-urlencoded"
	mediaMultipart = "multipart/form-data"
)

// Attachments never change once stored under a slug.
const attachmentCacheControl = "private, max-age=3600"

// RouterConfig holds the HTTP settings of the catalog API.
type RouterConfig struct {
	ServiceName    string
	APIPrefix      string
	DefaultTenant  string
	MaxUploadBytes int64
	CORS           middleware.CORSConfig

	// WriteLimit throttles product creation and attachment uploads.
	WriteLimit middleware.RateLimitConfig
	Pprof      middleware.PprofConfig
}

// NewRouter creates a chi router with all catalog routes registered.
func NewRouter(
	catalog CatalogService,
	attachments AttachmentService,
	tenants repository.TenantRepository,
	validate middleware.TokenValidator,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.Pprof, logger)

	productHandler := NewProductHandler(catalog, attachments, cfg.APIPrefix, cfg.MaxUploadBytes, logger)
	attachmentHandler := NewAttachmentHandler(attachments, logger)
	writeLimit := middleware.RateLimit(cfg.WriteLimit, logger)

	r.Route(cfg.APIPrefix, func(r chi.Router) {
		r.Use(ResolveTenant(tenants, cfg.DefaultTenant))

		r.Route("/product", func(r chi.Router) {
			r.Get("/{slug}/attachment", productHandler.ListAttachments)
			r.With(writeLimit).Post("/{slug}/attachment", productHandler.UploadAttachments)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(validate))
				r.Use(RequireTenantMatch)

				r.Get("/", productHandler.ListProducts)
				r.Get("/{slug}", productHandler.GetProduct)
				r.With(ContentType(mediaForm, mediaMultipart)).Post("/{slug}/move", productHandler.Move)
				r.With(ContentType(mediaJSON)).Post("/{slug}", productHandler.UpdateProduct)
				r.Put("/{slug}", productHandler.ReplaceProduct)
				r.With(writeLimit, ContentType(mediaJSON), middleware.RequireRole(auth.RoleAdmin)).
					Post("/", productHandler.CreateProduct)
			})
		})

		r.With(middleware.CacheControl(attachmentCacheControl, TenantHeader)).
			Get("/attachment/{name}", attachmentHandler.GetAttachment)
	})

	return r
}
