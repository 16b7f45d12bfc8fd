package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-proposal/internal/resilience"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var errDown = errors.New("postgres down")

func fail(context.Context) error { return errDown }
func pass(context.Context) error { return nil }

func TestBreakerOpensAndRecovers(t *testing.T) {
	clk := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := resilience.New(resilience.Config{Name: "test_recover", MinRequests: 2, FailureRatio: 0.5, OpenFor: time.Minute, Now: clk.Now})
	ctx := context.Background()

	require.NoError(t, b.Do(ctx, pass))
	require.ErrorIs(t, b.Do(ctx, fail), errDown)
	require.Equal(t, resilience.Open, b.State())

	called := false
	err := b.Do(ctx, func(context.Context) error { called = true; return nil })
	require.ErrorIs(t, err, resilience.ErrOpen)
	require.False(t, called)

	clk.Advance(time.Minute)
	require.Equal(t, resilience.HalfOpen, b.State())
	require.NoError(t, b.Do(ctx, pass))
	require.Equal(t, resilience.Closed, b.State())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	clk := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := resilience.New(resilience.Config{Name: "test_reopen", MinRequests: 1, OpenFor: time.Second, Now: clk.Now})
	ctx := context.Background()

	require.Error(t, b.Do(ctx, fail))
	require.Equal(t, resilience.Open, b.State())

	clk.Advance(time.Second)
	require.ErrorIs(t, b.Do(ctx, fail), errDown)
	require.Equal(t, resilience.Open, b.State())
	require.ErrorIs(t, b.Do(ctx, pass), resilience.ErrOpen)
}

func TestBreakerAdmitsSingleHalfOpenProbe(t *testing.T) {
	clk := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := resilience.New(resilience.Config{Name: "test_probe", MinRequests: 1, OpenFor: time.Second, Now: clk.Now})
	ctx := context.Background()
	require.Error(t, b.Do(ctx, fail))
	clk.Advance(time.Second)

	err := b.Do(ctx, func(ctx context.Context) error {
		require.ErrorIs(t, b.Do(ctx, pass), resilience.ErrOpen)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, resilience.Closed, b.State())
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	b := resilience.New(resilience.Config{Name: "test_cancel", MinRequests: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, resilience.Closed, b.State())
}

func TestNilBreakerRunsCall(t *testing.T) {
	var b *resilience.Breaker
	require.ErrorIs(t, b.Do(context.Background(), fail), errDown)
}

func TestRegisterMetricsIsRepeatable(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, resilience.RegisterMetrics(reg))
	require.NoError(t, resilience.RegisterMetrics(reg))
}
