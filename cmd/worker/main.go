package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/quotex-api/internal/app"
	"github.com/noah-isme/quotex-api/internal/config"
	"github.com/noah-isme/quotex-api/internal/obs"
	"github.com/noah-isme/quotex-api/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	decimal.MarshalJSONWithoutQuotes = true

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel, cfg.Obs.ServiceName).
		With().Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics("quotex", nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	deps, err := app.New(startCtx, cfg, logger, app.Options{InstrumentRedis: true})
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	asynqLog := tasks.Logger{L: logger}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Logger:      asynqLog,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Error().Err(err).Str("kind", task.Type()).Msg("sweep task failed")
		}),
	})
	sched := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: time.UTC, Logger: asynqLog})
	if err := tasks.Schedule(sched, map[string]string{
		tasks.TypeQuoteExpire:       cfg.Worker.QuoteExpiryCron,
		tasks.TypeInvoiceOverdue:    cfg.Worker.InvoiceDueCron,
		tasks.TypeInventoryLowStock: cfg.Worker.LowStockCron,
	}); err != nil {
		logger.Fatal().Err(err).Msg("register schedules")
	}

	if err := srv.Start(deps.Sweeper.Mux()); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}
	if err := sched.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	logger.Info().Int("concurrency", cfg.Worker.Concurrency).Msg("worker started")

	<-ctx.Done()
	logger.Info().Msg("worker draining")
	sched.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}
