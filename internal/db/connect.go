package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-proposal/internal/obs"
)

// ConnectOptions tune the startup connection retry.
type ConnectOptions struct {
	AppName        string
	MaxElapsedTime time.Duration
	MaxInterval    time.Duration
}

// Connect opens a traced pgx pool, retrying with exponential backoff until the database
// answers a ping or the retry budget runs out.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: parse config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if opts.AppName != "" {
		if poolConfig.ConnConfig.RuntimeParams == nil {
			poolConfig.ConnConfig.RuntimeParams = map[string]string{}
		}
		poolConfig.ConnConfig.RuntimeParams["application_name"] = opts.AppName
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = opts.MaxElapsedTime
	if policy.MaxElapsedTime <= 0 {
		policy.MaxElapsedTime = time.Minute
	}
	if opts.MaxInterval > 0 {
		policy.MaxInterval = opts.MaxInterval
	}

	var pool *pgxpool.Pool
	err = backoff.RetryNotify(
		func() error {
			p, err := pgxpool.NewWithConfig(ctx, poolConfig)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := p.Ping(ctx); err != nil {
				p.Close()
				return fmt.Errorf("ping: %w", err)
			}
			pool = p
			return nil
		},
		backoff.WithContext(policy, ctx),
		func(err error, next time.Duration) {
			logger.Warn().Err(err).Dur("next_attempt_in", next).Msg("database not ready, retrying")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("db: connect after retries: %w", err)
	}
	return pool, nil
}
