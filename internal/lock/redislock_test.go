package lock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-proposal/internal/lock"
)

func newLocker(t *testing.T) (lock.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return lock.Locker{Client: client, Prefix: "lock:", Retry: 5 * time.Millisecond}, mr
}

func TestWithLockSerialisesHolders(t *testing.T) {
	locker, _ := newLocker(t)
	locker.Wait = time.Second
	ctx := context.Background()

	var mu sync.Mutex
	var order []string
	acquired := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 2)

	go func() {
		done <- locker.WithLock(ctx, "quote-1", func(context.Context) error {
			mu.Lock()
			order = append(order, "first")
			mu.Unlock()
			close(acquired)
			<-release
			return nil
		})
	}()
	<-acquired

	go func() {
		done <- locker.WithLock(ctx, "quote-1", func(context.Context) error {
			mu.Lock()
			order = append(order, "second")
			mu.Unlock()
			return nil
		})
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"first", "second"}, order)
}

func TestWithLockBusyWithoutWait(t *testing.T) {
	locker, mr := newLocker(t)
	require.NoError(t, mr.Set("lock:quote-2", "someone-else"))

	called := false
	err := locker.WithLock(context.Background(), "quote-2", func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, lock.ErrBusy)
	require.False(t, called)

	got, err := mr.Get("lock:quote-2")
	require.NoError(t, err)
	require.Equal(t, "someone-else", got)
}

func TestWithLockReleasesOnError(t *testing.T) {
	locker, mr := newLocker(t)
	boom := errors.New("boom")

	err := locker.WithLock(context.Background(), "quote-3", func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists("lock:quote-3"))
}

func TestWithLockHonoursContext(t *testing.T) {
	locker, mr := newLocker(t)
	locker.Wait = time.Minute
	require.NoError(t, mr.Set("lock:quote-4", "held"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := locker.WithLock(ctx, "quote-4", func(context.Context) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
