package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Rate is a budget of Max events per Window.
type Rate struct {
	Max    int
	Window time.Duration
}

func (r Rate) disabled() bool { return r.Max <= 0 || r.Window <= 0 }

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allower decides whether one more event for key fits the rate.
type Allower interface {
	Allow(ctx context.Context, key string, rate Rate) (Decision, error)
}

func unlimited(rate Rate, now time.Time) Decision {
	return Decision{Allowed: true, Limit: rate.Max, Remaining: rate.Max, ResetAt: now.Add(rate.Window)}
}

// slidingScript trims events older than the window and records the new one only when
// the budget has room, so rejected calls do not extend a caller's lockout. It returns
// the admitted flag, the event count and the score of the oldest event kept.
var slidingScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
local admitted = 0
if count < max then
  redis.call("ZADD", key, now, ARGV[4])
  count = count + 1
  admitted = 1
end
redis.call("PEXPIRE", key, window)
local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
local first = now
if oldest[2] then
  first = tonumber(oldest[2])
end
return {admitted, count, first}
`)

// SlidingWindow counts events in a Redis sorted set scored by millisecond timestamps.
type SlidingWindow struct {
	Client *redis.Client
	Prefix string
	Now    func() time.Time
}

// Allow implements Allower.
func (l SlidingWindow) Allow(ctx context.Context, key string, rate Rate) (Decision, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	if l.Client == nil || rate.disabled() {
		return unlimited(rate, now), nil
	}

	nowMS := now.UnixMilli()
	res, err := slidingScript.Run(ctx, l.Client, []string{l.Prefix + key},
		nowMS, rate.Window.Milliseconds(), rate.Max, strconv.FormatInt(nowMS, 10)+"-"+uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}

	count := int(res[1])
	remaining := rate.Max - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   res[0] == 1,
		Limit:     rate.Max,
		Remaining: remaining,
		ResetAt:   time.UnixMilli(res[2]).Add(rate.Window),
	}, nil
}
