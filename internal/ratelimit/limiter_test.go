package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestSlidingWindowAdmitsUpToMax(t *testing.T) {
	client, _ := newClient(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l := SlidingWindow{Client: client, Prefix: "rl:", Now: func() time.Time { return now }}
	ctx := context.Background()
	rate := Rate{Max: 2, Window: time.Minute}

	for i := range 2 {
		d, err := l.Allow(ctx, "quotes:1.2.3.4", rate)
		require.NoError(t, err)
		require.True(t, d.Allowed, "event %d", i)
		require.Equal(t, 1-i, d.Remaining)
		now = now.Add(10 * time.Second)
	}

	d, err := l.Allow(ctx, "quotes:1.2.3.4", rate)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 0, d.Remaining)
	require.Equal(t, time.Date(2026, 5, 1, 12, 1, 0, 0, time.UTC), d.ResetAt.UTC())

	// The first event slides out of the window while the second stays.
	now = time.Date(2026, 5, 1, 12, 1, 0, 1_000_000, time.UTC)
	d, err = l.Allow(ctx, "quotes:1.2.3.4", rate)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 0, d.Remaining)
}

func TestSlidingWindowRejectionsDoNotConsume(t *testing.T) {
	client, mr := newClient(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l := SlidingWindow{Client: client, Prefix: "rl:", Now: func() time.Time { return now }}
	ctx := context.Background()
	rate := Rate{Max: 1, Window: time.Minute}

	_, err := l.Allow(ctx, "k", rate)
	require.NoError(t, err)
	for range 3 {
		d, err := l.Allow(ctx, "k", rate)
		require.NoError(t, err)
		require.False(t, d.Allowed)
	}
	members, err := mr.ZMembers("rl:k")
	require.NoError(t, err)
	require.Len(t, members, 1)
}

func TestSlidingWindowDisabledRate(t *testing.T) {
	d, err := SlidingWindow{}.Allow(context.Background(), "k", Rate{Max: 5, Window: time.Minute})
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 5, d.Remaining)
}

func TestFixedWindowAllow(t *testing.T) {
	client, _ := newClient(t)
	fw, err := NewFixedWindow(client, "rl")
	require.NoError(t, err)
	ctx := context.Background()
	rate := Rate{Max: 2, Window: time.Minute}

	d, err := fw.Allow(ctx, "quotes:1.2.3.4", rate)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 1, d.Remaining)
	require.True(t, d.ResetAt.After(time.Now()))

	d, err = fw.Allow(ctx, "quotes:1.2.3.4", rate)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = fw.Allow(ctx, "quotes:1.2.3.4", rate)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 0, d.Remaining)
}

func TestFixedWindowDisabledWithoutStore(t *testing.T) {
	d, err := FixedWindow{}.Allow(context.Background(), "k", Rate{Max: 5, Window: time.Minute})
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 5, d.Remaining)
}
