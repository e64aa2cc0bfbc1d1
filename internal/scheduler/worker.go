package scheduler

import (
	"context"
	"fmt"

	"engagement_backend/platform/apperr"
	"engagement_backend/platform/config"
	"engagement_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper *Sweeper
	tenants TenantStore
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweeper *Sweeper, tenants TenantStore, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		sweeper: sweeper,
		tenants: tenants,
		log:     log,
	}

	mux.HandleFunc(TaskSweepTenant, w.handleSweepTenant)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleSweepTenant(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSweepTenantPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return w.processSweep(ctx, payload)
}

func (w *Worker) processSweep(ctx context.Context, payload SweepTenantPayload) error {
	job, ok := ParseJob(payload.Job)
	if !ok {
		return fmt.Errorf("%w: unknown job %q", asynq.SkipRetry, payload.Job)
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	tenant, err := w.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}
	return w.sweeper.RunTenant(ctx, job, tenant)
}
