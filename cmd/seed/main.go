// Command seed fills a catalog tenant with demo categories, products and
// attachments. Products go through the running API, categories are
// written to the database.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kidsinhalf/mayocat-shop/internal/app"
	"github.com/kidsinhalf/mayocat-shop/internal/auth"
	"github.com/kidsinhalf/mayocat-shop/internal/config"
	"github.com/kidsinhalf/mayocat-shop/internal/seed"
	"github.com/kidsinhalf/mayocat-shop/pkg/database"
	"github.com/kidsinhalf/mayocat-shop/pkg/httpclient"
	"github.com/kidsinhalf/mayocat-shop/pkg/logger"
)

const seedUser = "catalog-seed"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	opts, err := seed.LoadOptions()
	if err != nil {
		slog.Error("failed to load seed options", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(seedUser, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, opts.Timeout)
	defer cancelTimeout()

	if err := run(ctx, cfg, opts, log); err != nil {
		log.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts *seed.Options, log *slog.Logger) error {
	plan := opts.Plan(cfg.DefaultTenant)

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), log)
	if err != nil {
		return err
	}
	defer pool.Close()

	secret := cfg.JWTSecret
	if secret == "" {
		secret = app.DevelopmentJWTSecret
	}
	token, err := auth.NewJWTManager(secret, cfg.JWTExpiry).GenerateAccessToken(seedUser, auth.RoleAdmin, plan.TenantSlug)
	if err != nil {
		return err
	}

	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("catalog-api"),
		log,
	)
	api := seed.NewAPIClient(client, opts.APIURL+cfg.APIPrefix, plan.TenantSlug, token)

	log.Info("seeding catalog",
		slog.String("api", opts.APIURL+cfg.APIPrefix),
		slog.String("tenant", plan.TenantSlug),
		slog.Int("products", len(plan.Products)),
	)

	_, err = seed.NewSeeder(api, pool, log).Run(ctx, plan)
	return err
}
