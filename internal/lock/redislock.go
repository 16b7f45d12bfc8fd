package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// ErrBusy is returned when the lock is still held by someone else once the wait budget
// runs out.
var ErrBusy = errors.New("lock: resource busy")

// releaseScript deletes the key only while it still carries the caller's token, so a
// holder whose TTL lapsed cannot free a lock that was re-acquired by another caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker serialises work on a key across API replicas using SET NX with a token.
type Locker struct {
	Client *redis.Client
	Prefix string
	// TTL bounds how long a crashed holder can block others. Defaults to 5s.
	TTL time.Duration
	// Wait bounds how long WithLock polls for a held lock. Zero fails on first contention.
	Wait time.Duration
	// Retry is the polling interval while waiting. Defaults to 25ms.
	Retry time.Duration
}

// WithLock runs fn while holding the lock named key. The lock is released when fn
// returns, whatever its result.
func (l Locker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if l.Client == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	retry := l.Retry
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}

	name := l.Prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.Wait)

	for {
		ok, err := l.Client.SetNX(ctx, name, token, ttl).Result()
		if err != nil {
			return fmt.Errorf("lock: acquire %s: %w", name, err)
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %s", ErrBusy, key)
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	defer func() {
		// Released on a fresh context so a cancelled request still frees the key.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.Client, []string{name}, token).Err()
	}()
	return fn(ctx)
}
