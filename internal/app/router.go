package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-proposal/internal/auth"
	"github.com/noah-isme/backend-proposal/internal/common"
	"github.com/noah-isme/backend-proposal/internal/config"
	"github.com/noah-isme/backend-proposal/internal/health"
	"github.com/noah-isme/backend-proposal/internal/obs"
	"github.com/noah-isme/backend-proposal/internal/quote"
	"github.com/noah-isme/backend-proposal/internal/ratelimit"
	"github.com/noah-isme/backend-proposal/internal/security"
	"github.com/noah-isme/backend-proposal/internal/settings"
	"github.com/noah-isme/backend-proposal/internal/taxconfig"
)

// AdminRole is the role required on admin endpoints.
const AdminRole = "admin"

// RouterConfig groups what the HTTP router needs.
type RouterConfig struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Redis    *redis.Client
	Services *Services
	Keys     *auth.Keys
	Probes   []health.Probe
	Metrics  *obs.HTTPMetrics
}

// NewLimiter picks the rate limiter implementation named by driver.
func NewLimiter(driver string, client *redis.Client) (ratelimit.Allower, error) {
	switch driver {
	case "", "sliding":
		return ratelimit.SlidingWindow{Client: client, Prefix: "ratelimit:"}, nil
	case "ulule":
		return ratelimit.NewFixedWindow(client, "ratelimit:")
	default:
		return nil, fmt.Errorf("unsupported rate limit driver: %s", driver)
	}
}

// NewRouter builds the API handler tree.
func NewRouter(rc RouterConfig) (http.Handler, error) {
	if rc.Config == nil || rc.Services == nil {
		return nil, errors.New("app: router needs config and services")
	}
	cfg := rc.Config

	limiter, err := NewLimiter(cfg.RateLimitDriver, rc.Redis)
	if err != nil {
		return nil, err
	}
	quoteLimit := ratelimit.Handler{
		Limiter: limiter,
		Rate:    ratelimit.Rate{Max: cfg.RateLimitQuotesPerMin, Window: time.Minute},
		Key:     ratelimit.KeyByClientIP("quotes"),
		OnError: func(err error) {
			rc.Logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}
	idem := common.Idem{R: rc.Redis, TTL: cfg.IdempotencyTTL, Prefix: "idem:quotes:"}
	authMiddleware := auth.Middleware{Keys: rc.Keys}

	quoteHandler := quote.NewHandler(rc.Services.Quotes)
	quoteHandler.Create = []func(http.Handler) http.Handler{quoteLimit.Middleware, idem.Middleware}
	settingsHandler := &settings.Handler{Svc: rc.Services.Settings}
	taxHandler := &taxconfig.Handler{Svc: rc.Services.Taxes}
	healthHandler := health.Handler{Probes: rc.Probes}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if cfg.MetricsEnabled && rc.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: rc.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: rc.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{
		Enable:              cfg.SecurityHeadersEnabled,
		EnableHSTS:          cfg.HSTSEnabled,
		TrustForwardedProto: cfg.TrustForwardedProto,
		NoStore:             true,
	}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes, JSONOnly: true}.Middleware)

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/livez", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/quotes", quoteHandler.Routes)

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Use(authMiddleware.RequireRole(AdminRole))
			admin.Get("/settings", settingsHandler.GetGlobal)
			admin.Put("/settings", settingsHandler.PutGlobal)
			admin.Get("/proposals/{id}/settings", settingsHandler.GetProposal)
			admin.Put("/proposals/{id}/settings", settingsHandler.PutProposal)
			admin.Get("/tax-configs", taxHandler.List)
			admin.Get("/tax-configs/{country}", taxHandler.Get)
			admin.Put("/tax-configs/{country}", taxHandler.Put)
		})
	})

	if cfg.TracingEnabled {
		return otelhttp.NewHandler(r, "proposal-api"), nil
	}
	return r, nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
