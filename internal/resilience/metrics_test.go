package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestBreakerMetricsFollowTransitions(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New(Config{Name: "metrics_probe", MinRequests: 1, OpenFor: time.Second, Now: func() time.Time { return now }})
	ctx := context.Background()

	require.Equal(t, 0.0, testutil.ToFloat64(breakerState.WithLabelValues("metrics_probe")))

	_ = b.Do(ctx, func(context.Context) error { return errors.New("down") })
	require.Equal(t, 1.0, testutil.ToFloat64(breakerState.WithLabelValues("metrics_probe")))
	require.Equal(t, 1.0, testutil.ToFloat64(breakerOpened.WithLabelValues("metrics_probe")))

	_ = b.Do(ctx, func(context.Context) error { return nil })
	require.Equal(t, 1.0, testutil.ToFloat64(breakerRejected.WithLabelValues("metrics_probe")))

	now = now.Add(time.Second)
	require.NoError(t, b.Do(ctx, func(context.Context) error { return nil }))
	require.Equal(t, 0.0, testutil.ToFloat64(breakerState.WithLabelValues("metrics_probe")))
	require.Equal(t, 1.0, testutil.ToFloat64(breakerTransitions.WithLabelValues("metrics_probe", "closed", "open")))
	require.Equal(t, 1.0, testutil.ToFloat64(breakerTransitions.WithLabelValues("metrics_probe", "open", "half_open")))
	require.Equal(t, 1.0, testutil.ToFloat64(breakerTransitions.WithLabelValues("metrics_probe", "half_open", "closed")))
}
