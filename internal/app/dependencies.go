package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-proposal/internal/config"
	"github.com/noah-isme/backend-proposal/internal/db"
	"github.com/noah-isme/backend-proposal/internal/events"
	"github.com/noah-isme/backend-proposal/internal/health"
)

// Dependencies holds the shared clients built once per process.
type Dependencies struct {
	Config *config.Config
	Logger zerolog.Logger
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Events *events.Bus
}

// Open connects Postgres and Redis and builds the event bus.
func Open(ctx context.Context, cfg *config.Config, appName string, logger zerolog.Logger) (*Dependencies, error) {
	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.ConnectOptions{
		AppName:        appName,
		MaxElapsedTime: cfg.DBConnectTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	rdb, err := NewRedis(ctx, cfg.RedisURL, cfg.MetricsEnabled, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Dependencies{
		Config: cfg,
		Logger: logger,
		DB:     pool,
		Redis:  rdb,
		Events: &events.Bus{
			Store:     events.NewStore(pool),
			Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
		},
	}, nil
}

// Close releases the pool and the Redis client.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

// Probes returns readiness checks for Postgres and Redis.
func (d *Dependencies) Probes() []health.Probe {
	timeout := d.Config.HealthProbeTimeout
	return []health.Probe{
		{Name: "postgres", Timeout: timeout, Check: func(ctx context.Context) error {
			if d.DB == nil {
				return errors.New("db not configured")
			}
			return d.DB.Ping(ctx)
		}},
		{Name: "redis", Timeout: timeout, Check: func(ctx context.Context) error {
			if d.Redis == nil {
				return errors.New("redis not configured")
			}
			return d.Redis.Ping(ctx).Err()
		}},
	}
}

// NewRedis opens an instrumented Redis client and checks it answers.
func NewRedis(ctx context.Context, url string, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// TaskRedis converts the Redis URL into asynq connection options.
func TaskRedis(url string) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(url)
	if err != nil {
		return nil, fmt.Errorf("parse task redis url: %w", err)
	}
	return opt, nil
}
