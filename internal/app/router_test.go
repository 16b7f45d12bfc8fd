package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-proposal/internal/auth"
	"github.com/noah-isme/backend-proposal/internal/cache"
	"github.com/noah-isme/backend-proposal/internal/config"
	"github.com/noah-isme/backend-proposal/internal/health"
	"github.com/noah-isme/backend-proposal/internal/pricing"
	"github.com/noah-isme/backend-proposal/internal/quote"
	"github.com/noah-isme/backend-proposal/internal/settings"
)

type settingsStore struct {
	global *pricing.Settings
}

func (s *settingsStore) GetGlobal(context.Context) (pricing.Settings, bool, error) {
	if s.global == nil {
		return pricing.Settings{}, false, nil
	}
	return *s.global, true, nil
}

func (s *settingsStore) PutGlobal(_ context.Context, v pricing.Settings) error {
	s.global = &v
	return nil
}

func (s *settingsStore) GetProposal(context.Context, uuid.UUID) (pricing.ProposalSettings, bool, error) {
	return pricing.ProposalSettings{}, false, nil
}

func (s *settingsStore) PutProposal(context.Context, uuid.UUID, pricing.ProposalSettings) error {
	return nil
}

type routerFixture struct {
	handler http.Handler
	keys    *auth.Keys
}

func newRouterFixture(t *testing.T, mutate func(*config.Config)) routerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		DefaultCurrency:        "INR",
		DefaultLocale:          "en-IN",
		RateLimitQuotesPerMin:  100,
		RateLimitDriver:        "sliding",
		BodyLimitBytes:         1 << 20,
		IdempotencyTTL:         time.Hour,
		SecurityHeadersEnabled: true,
	}
	if mutate != nil {
		mutate(cfg)
	}

	settingsSvc, err := settings.NewService(settings.ServiceConfig{
		Store:  &settingsStore{},
		Cache:  cache.NewJSON(client, "settings:", time.Minute),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	quoteSvc, err := quote.NewService(quote.ServiceConfig{
		Sessions: cache.NewJSON(client, "quote:", time.Hour),
		Settings: settingsSvc,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	keys, err := auth.NewKeys("router-secret", "", "")
	require.NoError(t, err)

	handler, err := NewRouter(RouterConfig{
		Config:   cfg,
		Logger:   zerolog.Nop(),
		Redis:    client,
		Services: &Services{Settings: settingsSvc, Quotes: quoteSvc},
		Keys:     keys,
		Probes: []health.Probe{{Name: "redis", Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}}},
	})
	require.NoError(t, err)
	return routerFixture{handler: handler, keys: keys}
}

func (f routerFixture) do(t *testing.T, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

const quoteBody = `{
	"days": [{
		"id": "d1",
		"activities": [{"name": "Fort", "finalCost": 2000}],
		"accommodations": [{"hotelName": "Std", "pricePerNight": 4000, "nights": 1, "numberOfRooms": 1, "option": 1}]
	}],
	"travelers": {"adults": 2}
}`

func TestRouterHealthEndpoints(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"redis":"ok"`)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestRouterQuoteLifecycle(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/v1/quotes", quoteBody, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"finalTotal":6000`)
	require.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRouterQuoteRateLimit(t *testing.T) {
	f := newRouterFixture(t, func(cfg *config.Config) { cfg.RateLimitQuotesPerMin = 1 })

	rec := f.do(t, http.MethodPost, "/api/v1/quotes", quoteBody, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/quotes", quoteBody, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestRouterQuoteIdempotencyKey(t *testing.T) {
	f := newRouterFixture(t, nil)
	header := http.Header{"Idempotency-Key": []string{"abc-123"}}

	rec := f.do(t, http.MethodPost, "/api/v1/quotes", quoteBody, header)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/quotes", quoteBody, header)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "IDEMPOTENT_REPLAY")
}

func TestRouterBodyLimit(t *testing.T) {
	f := newRouterFixture(t, func(cfg *config.Config) { cfg.BodyLimitBytes = 16 })

	rec := f.do(t, http.MethodPost, "/api/v1/quotes", quoteBody, nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouterAdminRequiresAdminRole(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/admin/settings", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	agent, err := f.keys.Issue("agent@example.com", []string{"agent"}, time.Hour)
	require.NoError(t, err)
	rec = f.do(t, http.MethodGet, "/api/v1/admin/settings", "", http.Header{"Authorization": []string{"Bearer " + agent}})
	require.Equal(t, http.StatusForbidden, rec.Code)

	admin, err := f.keys.Issue("ops@example.com", []string{AdminRole}, time.Hour)
	require.NoError(t, err)
	bearer := http.Header{"Authorization": []string{"Bearer " + admin}}
	rec = f.do(t, http.MethodGet, "/api/v1/admin/settings", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"distribution":"even"`)

	rec = f.do(t, http.MethodPut, "/api/v1/admin/settings", `{"markup":{"type":"percentage","percentage":10},"distribution":"even"}`, bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/quotes", quoteBody, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"finalTotal":6600`)
}

func TestNewLimiterDrivers(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l, err := NewLimiter("ulule", client)
	require.NoError(t, err)
	require.NotNil(t, l)

	_, err = NewLimiter("token-bucket", client)
	require.Error(t, err)
}

func TestNewRouterRequiresServices(t *testing.T) {
	_, err := NewRouter(RouterConfig{Config: &config.Config{}})
	require.Error(t, err)
}
