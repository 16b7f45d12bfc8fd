package app

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-proposal/internal/cache"
	"github.com/noah-isme/backend-proposal/internal/config"
	"github.com/noah-isme/backend-proposal/internal/lock"
	"github.com/noah-isme/backend-proposal/internal/quote"
	"github.com/noah-isme/backend-proposal/internal/resilience"
	"github.com/noah-isme/backend-proposal/internal/settings"
	"github.com/noah-isme/backend-proposal/internal/taxconfig"
)

// Services bundles the domain services served by the API.
type Services struct {
	Settings *settings.Service
	Taxes    *taxconfig.Service
	Quotes   *quote.Service
	Tasks    *asynq.Client
}

// NewServices builds the domain services on top of opened dependencies.
func NewServices(d *Dependencies) (*Services, error) {
	cfg := d.Config

	settingsSvc, err := settings.NewService(settings.ServiceConfig{
		Store:   settings.NewStore(d.DB),
		Cache:   cache.NewJSON(d.Redis, "settings:", cfg.SettingsCacheTTL),
		Breaker: storeBreaker(cfg, "settings_store", d.Logger),
		Logger:  d.Logger.With().Str("component", "settings").Logger(),
	})
	if err != nil {
		return nil, err
	}

	taxSvc, err := taxconfig.NewService(taxconfig.ServiceConfig{
		Store:   taxconfig.NewStore(d.DB),
		Cache:   cache.NewJSON(d.Redis, "taxconfig:", cfg.TaxConfigCacheTTL),
		Breaker: storeBreaker(cfg, "taxconfig_store", d.Logger),
		Logger:  d.Logger.With().Str("component", "taxconfig").Logger(),
	})
	if err != nil {
		return nil, err
	}

	redisOpt, err := TaskRedis(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	tasks := asynq.NewClient(redisOpt)

	quoteSvc, err := quote.NewService(quote.ServiceConfig{
		Sessions:        cache.NewJSON(d.Redis, "quote:", cfg.QuoteCacheTTL),
		Locker:          lock.Locker{Client: d.Redis, Prefix: "quote:lock:", TTL: cfg.QuoteLockTTL, Wait: cfg.QuoteLockWait},
		Settings:        settingsSvc,
		Taxes:           taxSvc,
		Tasks:           tasks,
		Events:          d.Events,
		Logger:          d.Logger.With().Str("component", "quote").Logger(),
		DefaultCurrency: cfg.DefaultCurrency,
		DefaultLocale:   cfg.DefaultLocale,
		FinalizeRetry:   cfg.FinalizeMaxRetry,
	})
	if err != nil {
		_ = tasks.Close()
		return nil, err
	}

	return &Services{Settings: settingsSvc, Taxes: taxSvc, Quotes: quoteSvc, Tasks: tasks}, nil
}

func storeBreaker(cfg *config.Config, name string, logger zerolog.Logger) *resilience.Breaker {
	return resilience.New(resilience.Config{
		Name:         name,
		MinRequests:  cfg.BreakerMinRequests,
		FailureRatio: cfg.BreakerFailureRatio,
		OpenFor:      cfg.BreakerOpenFor,
		Logger:       logger,
	})
}

// Close releases the task client.
func (s *Services) Close() error {
	if s == nil || s.Tasks == nil {
		return nil
	}
	if err := s.Tasks.Close(); err != nil {
		return fmt.Errorf("close task client: %w", err)
	}
	return nil
}
