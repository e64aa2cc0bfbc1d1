// Package scheduler runs the periodic engagement sweeps and the on-demand
// sweep queue.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"engagement_backend/platform/config"
	"engagement_backend/platform/logger"
	"engagement_backend/platform/metrics"

	"github.com/robfig/cron/v3"
)

// Scheduler owns the cron handle. A tick is dropped while the previous run
// of the same job is still in flight.
type Scheduler struct {
	sweeper *Sweeper
	specs   map[Job]string
	jobs    map[Job]cron.Job
	metrics *metrics.Metrics
	log     *logger.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
	ctx    context.Context
}

func New(sweeper *Sweeper, cfg config.SchedulerConfig, m *metrics.Metrics, log *logger.Logger) *Scheduler {
	s := &Scheduler{
		sweeper: sweeper,
		specs: map[Job]string{
			JobSync:           cfg.GetSyncCron(),
			JobAutoReply:      cfg.GetAutoReplyCron(),
			JobLeadGeneration: cfg.GetLeadGenerationCron(),
		},
		jobs:    make(map[Job]cron.Job, 3),
		metrics: m,
		log:     log,
	}
	for _, job := range []Job{JobSync, JobAutoReply, JobLeadGeneration} {
		guard := cron.SkipIfStillRunning(skipRecorder{job: job, metrics: m, log: log})
		s.jobs[job] = cron.NewChain(guard).Then(cron.FuncJob(func() { s.runJob(job) }))
	}
	return s
}

// skipRecorder receives the "skip" notice of cron.SkipIfStillRunning.
type skipRecorder struct {
	job     Job
	metrics *metrics.Metrics
	log     *logger.Logger
}

func (r skipRecorder) Info(msg string, keysAndValues ...interface{}) {
	if msg != "skip" {
		return
	}
	r.metrics.JobSkipped(string(r.job))
	r.log.Warn("job still running, skipping tick", "job", string(r.job))
}

func (r skipRecorder) Error(err error, msg string, keysAndValues ...interface{}) {
	r.log.Error(msg, "job", string(r.job), "error", err)
}

// Start registers every job and starts the cron loop. Runs inherit ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}

	c := cron.New()
	for _, job := range []Job{JobSync, JobAutoReply, JobLeadGeneration} {
		spec := s.specs[job]
		if spec == "" {
			continue
		}
		if _, err := c.AddJob(spec, s.jobs[job]); err != nil {
			return fmt.Errorf("job %s: invalid cron spec %q: %w", job, spec, err)
		}
		s.log.Info("scheduled job", "job", string(job), "spec", spec)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron = c
	c.Start()
	return nil
}

// Stop cancels in-flight runs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
}

func (s *Scheduler) runJob(job Job) {
	ctx := s.runContext()
	start := time.Now()
	if err := s.sweeper.Run(ctx, job); err != nil {
		s.log.Warn("job failed", "job", string(job), "error", err)
	}
	s.metrics.JobFinished(string(job), time.Since(start))
}

func (s *Scheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}
