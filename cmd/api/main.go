package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"engagement_backend/internal/access"
	"engagement_backend/internal/activity"
	activityrepo "engagement_backend/internal/activity/repository"
	"engagement_backend/internal/auth"
	"engagement_backend/internal/connector"
	"engagement_backend/internal/email"
	"engagement_backend/internal/engagement"
	engrepo "engagement_backend/internal/engagement/repository"
	engservice "engagement_backend/internal/engagement/service"
	"engagement_backend/internal/events"
	apphttp "engagement_backend/internal/http"
	"engagement_backend/internal/http/router"
	"engagement_backend/internal/identity"
	identityrepo "engagement_backend/internal/identity/repository"
	"engagement_backend/internal/inbox"
	inboxrepo "engagement_backend/internal/inbox/repository"
	"engagement_backend/internal/ingestion"
	"engagement_backend/internal/leads"
	leadrepo "engagement_backend/internal/leads/repository"
	"engagement_backend/internal/notification"
	"engagement_backend/internal/replygen"
	"engagement_backend/internal/scheduler"
	"engagement_backend/internal/webhook"
	"engagement_backend/platform/config"
	"engagement_backend/platform/db"
	"engagement_backend/platform/logger"
	"engagement_backend/platform/metrics"
	"engagement_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	appMetrics := metrics.New(prometheus.NewRegistry())

	// Shared validator instance for dependency injection
	val := validator.New()

	sweepQueue, closeQueue := initSweepQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	// ========================================================================
	// Repositories
	// ========================================================================

	identityRepo := identityrepo.New(pool)
	commentRepo := engrepo.New(pool)
	leadRepo := leadrepo.New(pool)
	inboxRepo := inboxrepo.New(pool)
	activityRepo := activityrepo.New(pool)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(email.NewSender(cfg), identityRepo, leadRepo, log)
	notificationModule.RegisterHandlers(eventBus)

	gateway := ingestion.NewGateway(commentRepo, inboxRepo, appMetrics)
	orchestrator := engservice.NewOrchestrator(engservice.Deps{
		Comments:   commentRepo,
		Leads:      leadRepo,
		Connectors: connector.NewFactory(cfg),
		Generator:  newReplyGenerator(cfg),
		Ingestor:   gateway,
		EventBus:   eventBus,
		Metrics:    appMetrics,
		Logger:     log,
	}, cfg)

	guard := access.NewGuard(access.NewResolver(identityRepo, identityRepo))

	authModule := auth.NewModule(identityRepo, cfg, eventBus, log, val)
	identityModule := identity.NewModule(identityRepo, eventBus, val)
	engagementModule := engagement.NewModule(orchestrator, val)
	leadsModule := leads.NewModule(leadRepo, orchestrator, eventBus, val)
	inboxModule := inbox.NewModule(inboxRepo, identityRepo, val)
	webhookModule := webhook.NewModule(identityRepo, gateway, eventBus, cfg, log)
	activityModule := activity.NewModule(activityRepo, eventBus, val, log)
	triggerModule := scheduler.NewTriggerModule(sweepQueue)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Metrics:  appMetrics,
		Guard:    guard,
		Modules: []apphttp.Module{
			authModule,
			identityModule,
			engagementModule,
			leadsModule,
			inboxModule,
			webhookModule,
			activityModule,
			triggerModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initSweepQueue returns the asynq client, or nil when Redis is not configured.
func initSweepQueue(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.SweepEnqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; on-demand sweeps disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize sweep queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func newReplyGenerator(cfg config.ReplyConfig) replygen.Generator {
	return replygen.NewSelector(
		replygen.NewGeminiGenerator(cfg),
		cfg.GetGeminiAPIKey() != "",
		replygen.NewFallback(cfg.GetSupportEmail()),
	)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
