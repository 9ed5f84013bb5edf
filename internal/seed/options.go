package seed

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	pkgconfig "github.com/kidsinhalf/mayocat-shop/pkg/config"
)

// Options configures a seeding run. The catalog's own settings (database,
// API prefix, JWT secret) come from the service configuration.
type Options struct {
	APIURL        string        `env:"SEED_API_URL" envDefault:"http://localhost:8001"`
	Tenant        string        `env:"SEED_TENANT"`
	TenantName    string        `env:"SEED_TENANT_NAME" envDefault:"Demo shop"`
	ExtraProducts int           `env:"SEED_EXTRA_PRODUCTS" envDefault:"0"`
	RandomSeed    int64         `env:"SEED_RANDOM_SEED" envDefault:"1"`
	Timeout       time.Duration `env:"SEED_TIMEOUT" envDefault:"2m"`
}

// LoadOptions reads seeding options from the environment.
func LoadOptions() (*Options, error) {
	opts := &Options{}
	if err := pkgconfig.Load(opts); err != nil {
		return nil, fmt.Errorf("load seed options: %w", err)
	}
	return opts, nil
}

func loadOptionsFrom(environ map[string]string) (*Options, error) {
	opts := &Options{}
	if err := pkgconfig.LoadFrom(opts, environ); err != nil {
		return nil, fmt.Errorf("load seed options: %w", err)
	}
	return opts, nil
}

// Validate checks the parsed options.
func (o *Options) Validate() error {
	var errs []error
	if o.APIURL == "" {
		errs = append(errs, errors.New("SEED_API_URL must not be empty"))
	}
	if o.ExtraProducts < 0 {
		errs = append(errs, fmt.Errorf("SEED_EXTRA_PRODUCTS must not be negative, got %d", o.ExtraProducts))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("SEED_TIMEOUT must be positive, got %s", o.Timeout))
	}
	return errors.Join(errs...)
}

// Plan builds the demo plan. The tenant falls back to defaultTenant.
func (o *Options) Plan(defaultTenant string) Plan {
	tenant := o.Tenant
	if tenant == "" {
		tenant = defaultTenant
	}

	products := append([]Product{}, DefaultProducts...)
	if o.ExtraProducts > 0 {
		rnd := rand.New(rand.NewSource(o.RandomSeed))
		products = append(products, GenerateProducts(o.ExtraProducts, DefaultCategories, rnd)...)
	}

	return Plan{
		TenantSlug: tenant,
		TenantName: o.TenantName,
		Categories: DefaultCategories,
		Products:   products,
	}
}
