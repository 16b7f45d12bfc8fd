package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Country string  `json:"country"`
	Rate    float64 `json:"rate"`
}

func TestJSONRoundTripWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewJSON(client, "tax:", time.Minute)
	ctx := context.Background()

	var got payload
	found, err := c.Get(ctx, "IN", &got)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, c.Set(ctx, "IN", payload{Country: "IN", Rate: 5}))
	require.True(t, mr.Exists("tax:IN"))
	require.Equal(t, time.Minute, mr.TTL("tax:IN"))

	found, err = c.Get(ctx, "IN", &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, payload{Country: "IN", Rate: 5}, got)

	require.NoError(t, c.Delete(ctx, "IN"))
	require.False(t, mr.Exists("tax:IN"))
}

func TestJSONNilClientIsMiss(t *testing.T) {
	c := NewJSON(nil, "x:", time.Minute)
	var got payload
	found, err := c.Get(context.Background(), "k", &got)
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, c.Set(context.Background(), "k", got))
}
