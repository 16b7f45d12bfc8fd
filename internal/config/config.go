package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/backend-proposal/internal/obs"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	CORSAllowedOrigins []string

	QuoteCacheTTL     time.Duration
	TaxConfigCacheTTL time.Duration
	SettingsCacheTTL  time.Duration
	DefaultCurrency   string
	DefaultLocale     string

	RateLimitQuotesPerMin int
	RateLimitDriver       string
	BodyLimitBytes        int64
	IdempotencyTTL        time.Duration

	SecurityHeadersEnabled bool
	HSTSEnabled            bool
	TrustForwardedProto    bool

	DBConnectTimeout    time.Duration
	HealthProbeTimeout  time.Duration
	ShutdownGracePeriod time.Duration

	WorkerConcurrency int
	FinalizeMaxRetry  int

	QuoteLockTTL  time.Duration
	QuoteLockWait time.Duration

	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenFor      time.Duration

	LogFormat          string
	LogLevel           string
	MetricsNamespace   string
	MetricsEnabled     bool
	TracingEnabled     bool
	TracingExporter    string
	OTLPEndpoint       string
	TracingSampleRatio float64
	MetricsBucketsMS   []float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          strings.TrimSpace(k.String("JWT_ISSUER")),
		JWTAudience:        strings.TrimSpace(k.String("JWT_AUDIENCE")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		QuoteCacheTTL:     parseDuration(k.String("QUOTE_CACHE_TTL"), "24h"),
		TaxConfigCacheTTL: parseDuration(k.String("TAX_CONFIG_CACHE_TTL"), "10m"),
		SettingsCacheTTL:  parseDuration(k.String("SETTINGS_CACHE_TTL"), "5m"),
		DefaultCurrency:   strings.ToUpper(valueOrDefault(k.String("DEFAULT_CURRENCY"), "INR")),
		DefaultLocale:     valueOrDefault(k.String("DEFAULT_LOCALE"), "en-IN"),

		RateLimitQuotesPerMin: parseInt(k.String("RATE_LIMIT_QUOTES_PER_MIN"), 120),
		RateLimitDriver:       strings.ToLower(valueOrDefault(k.String("RATE_LIMIT_DRIVER"), "sliding")),
		BodyLimitBytes:        int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
		IdempotencyTTL:        parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		SecurityHeadersEnabled: parseBoolDefault(k.String("SECURITY_HEADERS_ENABLE"), true),
		HSTSEnabled:            parseBoolDefault(k.String("SECURITY_HSTS_ENABLE"), false),
		TrustForwardedProto:    parseBoolDefault(k.String("SECURITY_TRUST_FORWARDED_PROTO"), false),

		DBConnectTimeout:    parseDuration(k.String("DB_CONNECT_TIMEOUT"), "30s"),
		HealthProbeTimeout:  parseDuration(k.String("HEALTH_PROBE_TIMEOUT"), "500ms"),
		ShutdownGracePeriod: parseDuration(k.String("SHUTDOWN_GRACE_PERIOD"), "10s"),

		WorkerConcurrency: parseInt(k.String("WORKER_CONCURRENCY"), 5),
		FinalizeMaxRetry:  parseInt(k.String("FINALIZE_MAX_RETRY"), 8),

		QuoteLockTTL:  parseDuration(k.String("QUOTE_LOCK_TTL"), "5s"),
		QuoteLockWait: parseDuration(k.String("QUOTE_LOCK_WAIT"), "2s"),

		BreakerMinRequests:  parseInt(k.String("BREAKER_MIN_REQUESTS"), 10),
		BreakerFailureRatio: parseFloat(k.String("BREAKER_FAILURE_RATIO"), 0.5),
		BreakerOpenFor:      parseDuration(k.String("BREAKER_OPEN_FOR"), "30s"),

		LogFormat:          valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace:   valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "proposal"),
		MetricsEnabled:     parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
		TracingEnabled:     parseBoolDefault(k.String("OBS_ENABLE_TRACING"), false),
		TracingExporter:    strings.ToLower(valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp")),
		OTLPEndpoint:       strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingSampleRatio: parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
		MetricsBucketsMS:   obs.ParseBucketsCSV(k.String("OBS_METRICS_BUCKETS_MS")),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
