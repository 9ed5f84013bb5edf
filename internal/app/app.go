package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kidsinhalf/mayocat-shop/internal/auth"
	"github.com/kidsinhalf/mayocat-shop/internal/config"
	"github.com/kidsinhalf/mayocat-shop/internal/domain"
	"github.com/kidsinhalf/mayocat-shop/internal/event"
	handler "github.com/kidsinhalf/mayocat-shop/internal/handler/http"
	"github.com/kidsinhalf/mayocat-shop/internal/repository"
	"github.com/kidsinhalf/mayocat-shop/internal/repository/memory"
	"github.com/kidsinhalf/mayocat-shop/internal/repository/postgres"
	"github.com/kidsinhalf/mayocat-shop/internal/service"
	"github.com/kidsinhalf/mayocat-shop/internal/storage"
	memstorage "github.com/kidsinhalf/mayocat-shop/internal/storage/memory"
	redisstorage "github.com/kidsinhalf/mayocat-shop/internal/storage/redis"
	"github.com/kidsinhalf/mayocat-shop/migrations"
	"github.com/kidsinhalf/mayocat-shop/pkg/database"
	"github.com/kidsinhalf/mayocat-shop/pkg/health"
	pkgkafka "github.com/kidsinhalf/mayocat-shop/pkg/kafka"
	"github.com/kidsinhalf/mayocat-shop/pkg/middleware"
	"github.com/kidsinhalf/mayocat-shop/pkg/tracing"
)

// ServiceName identifies the catalog in logs, metrics, traces and events.
const ServiceName = "catalog-service"

// Version is overridden at build time with -ldflags.
var Version = "dev"

// DevelopmentJWTSecret signs tokens when JWT_SECRET is unset in development.
const DevelopmentJWTSecret = "development-only-secret"

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	shutdownTracer tracing.ShutdownFunc
	handler        http.Handler
	httpServer     *http.Server
}

type stores struct {
	products    repository.ProductRepository
	categories  repository.CategoryRepository
	attachments repository.AttachmentRepository
	tenants     repository.TenantRepository
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	healthHandler := health.NewHandler()

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing(ServiceName, Version))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.shutdownTracer = shutdownTracer

	st, err := a.openStore(ctx, healthHandler)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	blobs, err := a.openStorage(ctx, healthHandler)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	// A nil interface keeps the event producer silent when Kafka is off.
	var publisher event.Publisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("kafka disabled, domain events will not be published")
	}
	eventProducer := event.NewProducer(publisher, logger)

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET is not set, using the development secret")
		secret = DevelopmentJWTSecret
	}
	jwtManager := auth.NewJWTManager(secret, cfg.JWTExpiry)

	catalogService := service.NewCatalogService(st.products, st.categories, eventProducer, logger)
	attachmentService := service.NewAttachmentService(st.attachments, blobs, eventProducer, logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSOrigins

	a.handler = handler.NewRouter(
		catalogService,
		attachmentService,
		st.tenants,
		jwtManager.Validator(),
		healthHandler,
		handler.RouterConfig{
			ServiceName:    ServiceName,
			APIPrefix:      cfg.APIPrefix,
			DefaultTenant:  cfg.DefaultTenant,
			MaxUploadBytes: cfg.MaxUploadBytes,
			CORS:           corsCfg,
			WriteLimit:     cfg.RateLimit(),
			Pprof:          cfg.Pprof(),
		},
		logger,
	)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context, healthHandler *health.Handler) (*stores, error) {
	if a.cfg.Store == config.StoreMemory {
		store := memory.NewStore()
		store.AddTenant(domain.Tenant{
			ID:   "tenant-" + a.cfg.DefaultTenant,
			Slug: a.cfg.DefaultTenant,
			Name: a.cfg.DefaultTenant,
		})
		a.logger.Info("using in-memory catalog store", slog.String("tenant", a.cfg.DefaultTenant))
		return &stores{
			products:    store.Products(),
			categories:  store.Categories(),
			attachments: store.Attachments(),
			tenants:     store.Tenants(),
		}, nil
	}

	database.SetSlowQueryLogging(a.cfg.SlowQueryThreshold(), a.logger)

	pool, err := database.NewPostgresPool(ctx, a.cfg.Postgres(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", a.cfg.PostgresHost),
		slog.Int("port", a.cfg.PostgresPort),
		slog.String("database", a.cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, ServiceName); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, fmt.Errorf("register pool metrics: %w", err)
		}
	}

	healthHandler.RegisterCritical("postgres", pool.Ping)

	return &stores{
		products:    postgres.NewProductRepository(pool),
		categories:  postgres.NewCategoryRepository(pool),
		attachments: postgres.NewAttachmentRepository(pool),
		tenants:     postgres.NewTenantRepository(pool),
	}, nil
}

func (a *App) openStorage(ctx context.Context, healthHandler *health.Handler) (storage.Storage, error) {
	if a.cfg.StorageBackend != config.StorageRedis {
		a.logger.Info("using in-memory attachment storage")
		return memstorage.New(), nil
	}

	client, err := database.NewRedisClient(ctx, a.cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = client
	a.logger.Info("connected to Redis", slog.String("addr", a.cfg.Redis().Addr()))

	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return redisstorage.New(client), nil
}

// Handler returns the HTTP handler serving the catalog API.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("api_prefix", a.cfg.APIPrefix),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeAll()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeAll()

	a.logger.Info("application shutdown complete")
	return nil
}

// closeAll releases every backend opened so far. It is safe on a
// partially initialized App.
func (a *App) closeAll() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
		a.producer = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
		a.redis = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.shutdownTracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracer(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
		a.shutdownTracer = nil
	}
}
