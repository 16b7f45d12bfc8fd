package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-proposal/internal/app"
	"github.com/noah-isme/backend-proposal/internal/config"
	"github.com/noah-isme/backend-proposal/internal/health"
	"github.com/noah-isme/backend-proposal/internal/obs"
	"github.com/noah-isme/backend-proposal/internal/quote"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "proposal-worker",
			Endpoint:      cfg.OTLPEndpoint,
			Exporter:      cfg.TracingExporter,
			SamplingRatio: cfg.TracingSampleRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	deps, err := app.Open(ctx, cfg, "proposal-worker", logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()

	redisOpt, err := app.TaskRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("task redis")
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.WorkerConcurrency,
		Logger:          obs.TaskLogger{Logger: logger},
		ShutdownTimeout: cfg.ShutdownGracePeriod,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warn().Err(err).
				Str("task", task.Type()).
				Int("retry", retried).
				Int("max_retry", maxRetry).
				Msg("task failed")
		}),
	})

	mux := asynq.NewServeMux()
	processor := &quote.FinalizeProcessor{
		Store:  quote.NewFinalizedStore(deps.DB),
		Events: deps.Events,
		Logger: logger,
	}
	processor.Register(mux)

	if cfg.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)
	}
	probes := health.Handler{Probes: deps.Probes()}
	side := chi.NewRouter()
	side.Get("/livez", probes.Live)
	side.Get("/readyz", probes.Ready)
	if cfg.MetricsEnabled {
		side.Handle("/metrics", promhttp.Handler())
	}
	sideSrv := &http.Server{Addr: cfg.HTTPAddr(), Handler: side, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := sideSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("worker probe server")
		}
	}()

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}

	<-ctx.Done()
	health.SetReady(false)
	srv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err := sideSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown probe server")
	}
	logger.Info().Msg("worker shutdown complete")
}
