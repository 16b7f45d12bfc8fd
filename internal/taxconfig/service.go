package taxconfig

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-proposal/internal/cache"
	"github.com/noah-isme/backend-proposal/internal/obs"
	"github.com/noah-isme/backend-proposal/internal/pricing"
	"github.com/noah-isme/backend-proposal/internal/resilience"
)

var (
	// ErrNotFound is returned when a country has no tax configuration.
	ErrNotFound = errors.New("taxconfig: not found")
	// ErrInvalidConfig reports a configuration rejected by validation.
	ErrInvalidConfig = errors.New("taxconfig: invalid configuration")
)

// Service serves tax reference data with a Redis read-through cache.
type Service struct {
	store   Store
	cache   *cache.JSON
	breaker *resilience.Breaker
	logger  zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store   Store
	Cache   *cache.JSON
	Breaker *resilience.Breaker
	Logger  zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("taxconfig: store is required")
	}
	return &Service{store: cfg.Store, cache: cfg.Cache, breaker: cfg.Breaker, logger: cfg.Logger}, nil
}

// Validate normalises and checks a configuration before it is persisted.
func Validate(cfg pricing.TaxConfig) (pricing.TaxConfig, error) {
	cfg.CountryCode = pricing.NormalizeCountry(cfg.CountryCode)
	if len(cfg.CountryCode) < 2 || len(cfg.CountryCode) > 3 {
		return cfg, fmt.Errorf("%w: country code must be 2 or 3 letters", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(cfg.Rates))
	for i, rate := range cfg.Rates {
		key := strings.ToLower(strings.TrimSpace(rate.ServiceType))
		if key == "" {
			return cfg, fmt.Errorf("%w: rate %d has no service type", ErrInvalidConfig, i)
		}
		if _, dup := seen[key]; dup {
			return cfg, fmt.Errorf("%w: duplicate rate for service type %q", ErrInvalidConfig, rate.ServiceType)
		}
		seen[key] = struct{}{}
		if invalidRate(rate.Rate) {
			return cfg, fmt.Errorf("%w: rate %d must be within [0, 100]", ErrInvalidConfig, i)
		}
	}
	if cfg.TDS != nil {
		if cfg.TDS.Threshold < 0 || invalidRate(cfg.TDS.Rate) {
			return cfg, fmt.Errorf("%w: tds threshold and rate must be non-negative", ErrInvalidConfig)
		}
	}
	return cfg, nil
}

func invalidRate(r float64) bool {
	return math.IsNaN(r) || r < 0 || r > 100
}

// Get returns the configuration for a country.
func (s *Service) Get(ctx context.Context, countryCode string) (pricing.TaxConfig, error) {
	code := pricing.NormalizeCountry(countryCode)
	if code == "" {
		return pricing.TaxConfig{}, ErrNotFound
	}

	var cached pricing.TaxConfig
	found, err := s.cache.Get(ctx, code, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Str("country", code).Msg("tax config cache read failed")
	}
	if found {
		obs.IncTaxConfigCache("hit")
		return cached, nil
	}
	obs.IncTaxConfigCache("miss")

	var (
		cfg pricing.TaxConfig
		ok  bool
	)
	err = s.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		cfg, ok, err = s.store.Get(ctx, code)
		return err
	})
	if err != nil {
		return pricing.TaxConfig{}, err
	}
	if !ok {
		return pricing.TaxConfig{}, ErrNotFound
	}
	if err := s.cache.Set(ctx, code, cfg); err != nil {
		s.logger.Warn().Err(err).Str("country", code).Msg("tax config cache write failed")
	}
	return cfg, nil
}

// List returns every stored configuration ordered by country code.
func (s *Service) List(ctx context.Context) ([]pricing.TaxConfig, error) {
	return s.store.List(ctx)
}

// Upsert validates and stores a configuration, evicting its cached copy.
func (s *Service) Upsert(ctx context.Context, cfg pricing.TaxConfig) (pricing.TaxConfig, error) {
	cfg, err := Validate(cfg)
	if err != nil {
		return pricing.TaxConfig{}, err
	}
	if err := s.store.Upsert(ctx, cfg); err != nil {
		return pricing.TaxConfig{}, err
	}
	if err := s.cache.Delete(ctx, cfg.CountryCode); err != nil {
		s.logger.Warn().Err(err).Str("country", cfg.CountryCode).Msg("tax config cache invalidation failed")
	}
	s.logger.Info().Str("country", cfg.CountryCode).Bool("active", cfg.Active).Msg("tax configuration updated")
	return cfg, nil
}

// Table loads the configurations for the given countries. Unknown countries are left out
// so the calculator falls back to a zero-tax result.
func (s *Service) Table(ctx context.Context, countryCodes ...string) (pricing.TaxTable, error) {
	configs := make([]pricing.TaxConfig, 0, len(countryCodes))
	for _, code := range countryCodes {
		cfg, err := s.Get(ctx, code)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return pricing.NewTaxTable(configs...), nil
}
