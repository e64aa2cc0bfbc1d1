package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	activityrepo "engagement_backend/internal/activity/repository"
	activityservice "engagement_backend/internal/activity/service"
	"engagement_backend/internal/connector"
	"engagement_backend/internal/email"
	engrepo "engagement_backend/internal/engagement/repository"
	engservice "engagement_backend/internal/engagement/service"
	"engagement_backend/internal/events"
	identityrepo "engagement_backend/internal/identity/repository"
	inboxrepo "engagement_backend/internal/inbox/repository"
	"engagement_backend/internal/ingestion"
	leadrepo "engagement_backend/internal/leads/repository"
	"engagement_backend/internal/notification"
	"engagement_backend/internal/replygen"
	"engagement_backend/internal/scheduler"
	"engagement_backend/platform/config"
	"engagement_backend/platform/db"
	"engagement_backend/platform/logger"
	"engagement_backend/platform/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	appMetrics := metrics.New(prometheus.NewRegistry())

	identityRepo := identityrepo.New(pool)
	commentRepo := engrepo.New(pool)
	leadRepo := leadrepo.New(pool)

	// Sweeps publish the same events as the API, so the same subscribers run here.
	activityservice.New(activityrepo.New(pool), log).RegisterHandlers(eventBus)
	notification.New(email.NewSender(cfg), identityRepo, leadRepo, log).RegisterHandlers(eventBus)

	orchestrator := engservice.NewOrchestrator(engservice.Deps{
		Comments:   commentRepo,
		Leads:      leadRepo,
		Connectors: connector.NewFactory(cfg),
		Generator: replygen.NewSelector(
			replygen.NewGeminiGenerator(cfg),
			cfg.GetGeminiAPIKey() != "",
			replygen.NewFallback(cfg.GetSupportEmail()),
		),
		Ingestor: ingestion.NewGateway(commentRepo, inboxrepo.New(pool), appMetrics),
		EventBus: eventBus,
		Metrics:  appMetrics,
		Logger:   log,
	}, cfg)

	sweeper := scheduler.NewSweeper(identityRepo, orchestrator, cfg, appMetrics, log)

	if addr := cfg.GetMetricsAddr(); addr != "" {
		metricsSrv := appMetrics.NewServer(addr)
		go func() {
			log.Info("metrics listening", "addr", addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	periodic := scheduler.New(sweeper, cfg, appMetrics, log)
	if err := periodic.Start(ctx); err != nil {
		log.Error("failed to start periodic jobs", "error", err)
		panic("failed to start periodic jobs: " + err.Error())
	}
	defer periodic.Stop()

	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; on-demand sweeps disabled")
		<-ctx.Done()
	} else {
		worker, err := scheduler.NewWorker(cfg, sweeper, identityRepo, log)
		if err != nil {
			log.Error("failed to initialize scheduler worker", "error", err)
			panic("failed to initialize scheduler worker: " + err.Error())
		}
		worker.Run(ctx)
	}

	log.Info("scheduler shutting down")
	eventBus.Wait()
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
