package ratelimit

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// FixedWindow delegates counting to a ulule limiter store. Counters reset at the end
// of each window instead of sliding.
type FixedWindow struct {
	Store limiter.Store
}

// NewFixedWindow builds a FixedWindow backed by Redis.
func NewFixedWindow(client *redis.Client, prefix string) (FixedWindow, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return FixedWindow{}, err
	}
	return FixedWindow{Store: store}, nil
}

// Allow implements Allower.
func (f FixedWindow) Allow(ctx context.Context, key string, rate Rate) (Decision, error) {
	if f.Store == nil || rate.disabled() {
		return unlimited(rate, time.Now()), nil
	}
	lim := limiter.New(f.Store, limiter.Rate{Period: rate.Window, Limit: int64(rate.Max)})
	res, err := lim.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !res.Reached,
		Limit:     int(res.Limit),
		Remaining: int(res.Remaining),
		ResetAt:   time.Unix(res.Reset, 0),
	}, nil
}
