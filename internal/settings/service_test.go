package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-proposal/internal/cache"
	"github.com/noah-isme/backend-proposal/internal/pricing"
	"github.com/noah-isme/backend-proposal/internal/resilience"
)

type memoryStore struct {
	global     *pricing.Settings
	proposals  map[uuid.UUID]pricing.ProposalSettings
	globalHits int
	failGlobal error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{proposals: map[uuid.UUID]pricing.ProposalSettings{}}
}

func (m *memoryStore) GetGlobal(context.Context) (pricing.Settings, bool, error) {
	m.globalHits++
	if m.failGlobal != nil {
		return pricing.Settings{}, false, m.failGlobal
	}
	if m.global == nil {
		return pricing.Settings{}, false, nil
	}
	return *m.global, true, nil
}

func (m *memoryStore) PutGlobal(_ context.Context, s pricing.Settings) error {
	m.global = &s
	return nil
}

func (m *memoryStore) GetProposal(_ context.Context, id uuid.UUID) (pricing.ProposalSettings, bool, error) {
	p, ok := m.proposals[id]
	return p, ok, nil
}

func (m *memoryStore) PutProposal(_ context.Context, id uuid.UUID, p pricing.ProposalSettings) error {
	m.proposals[id] = p
	return nil
}

func newTestService(t *testing.T, store Store) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, err := NewService(ServiceConfig{
		Store:  store,
		Cache:  cache.NewJSON(client, "settings:", time.Minute),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	return svc, mr
}

func tenPercent() pricing.Settings {
	return pricing.Settings{
		Markup:       pricing.MarkupSettings{Type: pricing.MarkupPercentage, Percentage: 10},
		Distribution: pricing.DistributionEven,
		ChildShare:   1,
	}
}

func TestGlobalFallsBackToDefaults(t *testing.T) {
	svc, _ := newTestService(t, newMemoryStore())

	got, err := svc.Global(context.Background())
	require.NoError(t, err)
	require.Equal(t, pricing.DefaultSettings(), got)
}

func TestGlobalIsCached(t *testing.T) {
	store := newMemoryStore()
	s := tenPercent()
	store.global = &s
	svc, mr := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.Global(ctx)
	require.NoError(t, err)
	got, err := svc.Global(ctx)
	require.NoError(t, err)

	require.Equal(t, s, got)
	require.Equal(t, 1, store.globalHits)
	require.True(t, mr.Exists("settings:global"))
}

func TestUpdateGlobalInvalidatesCache(t *testing.T) {
	store := newMemoryStore()
	svc, mr := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.Global(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists("settings:global"))

	_, err = svc.UpdateGlobal(ctx, tenPercent())
	require.NoError(t, err)
	require.False(t, mr.Exists("settings:global"))

	got, err := svc.Global(ctx)
	require.NoError(t, err)
	require.Equal(t, 10.0, got.Markup.Percentage)
}

func TestUpdateGlobalRejectsInvalidSettings(t *testing.T) {
	svc, _ := newTestService(t, newMemoryStore())
	ctx := context.Background()

	_, err := svc.UpdateGlobal(ctx, pricing.Settings{Markup: pricing.MarkupSettings{Type: pricing.MarkupSlab}})
	require.ErrorIs(t, err, ErrInvalidSettings)
	require.ErrorIs(t, err, pricing.ErrInvalidMarkup)

	bad := tenPercent()
	bad.Distribution = "by-age"
	_, err = svc.UpdateGlobal(ctx, bad)
	require.ErrorIs(t, err, ErrInvalidSettings)

	bad = tenPercent()
	bad.ChildShare = 2
	_, err = svc.UpdateGlobal(ctx, bad)
	require.ErrorIs(t, err, ErrInvalidSettings)
}

func TestResolvePrefersInlineThenStoredThenGlobal(t *testing.T) {
	store := newMemoryStore()
	global := tenPercent()
	store.global = &global
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	custom := pricing.Settings{
		Markup:       pricing.MarkupSettings{Type: pricing.MarkupPercentage, Percentage: 25},
		Distribution: pricing.DistributionSeparate,
		ChildShare:   0.5,
	}
	proposalID := uuid.New()
	require.NoError(t, svc.UpsertProposal(ctx, proposalID, pricing.ProposalSettings{Custom: custom}))

	got, err := svc.Resolve(ctx, nil, nil)
	require.NoError(t, err)
	require.Equal(t, global, got)

	got, err = svc.Resolve(ctx, &proposalID, nil)
	require.NoError(t, err)
	require.Equal(t, custom, got)

	unknown := uuid.New()
	got, err = svc.Resolve(ctx, &unknown, nil)
	require.NoError(t, err)
	require.Equal(t, global, got)

	inline := pricing.ProposalSettings{InheritFromGlobal: true}
	got, err = svc.Resolve(ctx, &proposalID, &inline)
	require.NoError(t, err)
	require.Equal(t, global, got)
}

func TestResolveRejectsInvalidInlineSettings(t *testing.T) {
	svc, _ := newTestService(t, newMemoryStore())
	ctx := context.Background()

	cases := map[string]pricing.Settings{
		"negative markup":      {Markup: pricing.MarkupSettings{Type: pricing.MarkupPercentage, Percentage: -50}},
		"unknown markup":       {Markup: pricing.MarkupSettings{Type: "slabz"}},
		"unknown distribution": {Markup: pricing.MarkupSettings{Type: pricing.MarkupPercentage}, Distribution: "weird"},
		"child share above 1":  {Markup: pricing.MarkupSettings{Type: pricing.MarkupPercentage}, ChildShare: 7},
	}
	for name, custom := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Resolve(ctx, nil, &pricing.ProposalSettings{Custom: custom})
			require.ErrorIs(t, err, ErrInvalidSettings)
		})
	}

	got, err := svc.Resolve(ctx, nil, &pricing.ProposalSettings{InheritFromGlobal: true, Custom: cases["negative markup"]})
	require.NoError(t, err)
	require.Equal(t, pricing.DefaultSettings(), got)
}

func TestUpsertProposalValidatesOnlyCustom(t *testing.T) {
	svc, _ := newTestService(t, newMemoryStore())
	ctx := context.Background()

	err := svc.UpsertProposal(ctx, uuid.New(), pricing.ProposalSettings{InheritFromGlobal: true})
	require.NoError(t, err)

	err = svc.UpsertProposal(ctx, uuid.New(), pricing.ProposalSettings{Custom: pricing.Settings{Markup: pricing.MarkupSettings{Type: "flat"}}})
	require.ErrorIs(t, err, ErrInvalidSettings)

	err = svc.UpsertProposal(ctx, uuid.Nil, pricing.ProposalSettings{InheritFromGlobal: true})
	require.ErrorIs(t, err, ErrInvalidSettings)
}

func TestGlobalPropagatesStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.failGlobal = errors.New("db down")
	svc, _ := newTestService(t, store)

	_, err := svc.Global(context.Background())
	require.EqualError(t, err, "db down")
}

func TestGlobalStoreFailuresTripBreaker(t *testing.T) {
	store := newMemoryStore()
	store.failGlobal = errors.New("db down")
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, err := NewService(ServiceConfig{
		Store:   store,
		Cache:   cache.NewJSON(client, "settings:", time.Minute),
		Breaker: resilience.New(resilience.Config{Name: "settings_test", MinRequests: 2, OpenFor: time.Hour}),
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	ctx := context.Background()

	for range 2 {
		_, err = svc.Global(ctx)
		require.EqualError(t, err, "db down")
	}
	_, err = svc.Global(ctx)
	require.ErrorIs(t, err, resilience.ErrOpen)
	require.Equal(t, 2, store.globalHits)
}

func TestNewServiceRequiresStore(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	require.Error(t, err)
}
