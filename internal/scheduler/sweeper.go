package scheduler

import (
	"context"
	"errors"
	"time"

	"engagement_backend/internal/engagement/service"
	leadrepo "engagement_backend/internal/leads/repository"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/config"
	"engagement_backend/platform/logger"
	"engagement_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Job names a periodic sweep.
type Job string

const (
	JobSync           Job = "sync"
	JobAutoReply      Job = "auto_reply"
	JobLeadGeneration Job = "lead_generation"
)

const defaultSweepConcurrency = 4

// ParseJob maps s to a Job.
func ParseJob(s string) (Job, bool) {
	switch Job(s) {
	case JobSync, JobAutoReply, JobLeadGeneration:
		return Job(s), true
	}
	return "", false
}

// TenantStore is the tenant storage the sweeps need.
type TenantStore interface {
	ListActiveTenants(ctx context.Context) ([]tenancy.Tenant, error)
	GetTenant(ctx context.Context, id uuid.UUID) (tenancy.Tenant, error)
	TouchPlatformSync(ctx context.Context, id uuid.UUID, platform tenancy.Platform, at time.Time) error
}

// Engagement runs the per-tenant pipeline steps.
type Engagement interface {
	SyncTenant(ctx context.Context, tenant tenancy.Tenant) (service.SyncResult, error)
	ProcessUnreplied(ctx context.Context, tenant tenancy.Tenant, limit int) ([]service.Outcome, error)
	GenerateLeads(ctx context.Context, tenant tenancy.Tenant) ([]leadrepo.Lead, error)
}

// Sweeper runs one job across tenants. Per-tenant failures are logged and
// never stop the other tenants.
type Sweeper struct {
	tenants     TenantStore
	engagement  Engagement
	timeout     time.Duration
	concurrency int
	metrics     *metrics.Metrics
	log         *logger.Logger
}

func NewSweeper(tenants TenantStore, engagement Engagement, cfg config.SchedulerConfig, m *metrics.Metrics, log *logger.Logger) *Sweeper {
	concurrency := cfg.GetSweepConcurrency()
	if concurrency < 1 {
		concurrency = defaultSweepConcurrency
	}
	return &Sweeper{
		tenants:     tenants,
		engagement:  engagement,
		timeout:     cfg.GetTenantJobTimeout(),
		concurrency: concurrency,
		metrics:     m,
		log:         log,
	}
}

// Run executes job for every eligible active tenant. Only a failure to list
// tenants is returned.
func (s *Sweeper) Run(ctx context.Context, job Job) error {
	tenants, err := s.tenants.ListActiveTenants(ctx)
	if err != nil {
		s.log.DatabaseError("list_active_tenants", err)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, tenant := range tenants {
		if !Eligible(job, tenant) {
			continue
		}
		g.Go(func() error {
			_ = s.RunTenant(gctx, job, tenant)
			return nil
		})
	}
	return g.Wait()
}

// RunTenant executes job for one tenant under the per-tenant timeout.
// Ineligible tenants are skipped without error.
func (s *Sweeper) RunTenant(ctx context.Context, job Job, tenant tenancy.Tenant) error {
	if !Eligible(job, tenant) {
		return nil
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := s.run(ctx, job, tenant)
	s.metrics.TenantRun(string(job), err)
	s.log.WithContext(ctx).JobRun(string(job), tenant.ID.String(), time.Since(start), err)
	return err
}

func (s *Sweeper) run(ctx context.Context, job Job, tenant tenancy.Tenant) error {
	switch job {
	case JobSync:
		_, err := s.engagement.SyncTenant(ctx, tenant)
		if err == nil {
			s.touchSynced(ctx, tenant)
		}
		return err
	case JobAutoReply:
		outcomes, err := s.engagement.ProcessUnreplied(ctx, tenant, 0)
		if err != nil {
			return err
		}
		var failed []error
		for _, o := range outcomes {
			if o.Err != nil {
				failed = append(failed, o.Err)
			}
		}
		if len(failed) > 0 && len(failed) == len(outcomes) {
			return errors.Join(failed...)
		}
		return nil
	case JobLeadGeneration:
		_, err := s.engagement.GenerateLeads(ctx, tenant)
		return err
	}
	return errors.New("unknown job " + string(job))
}

func (s *Sweeper) touchSynced(ctx context.Context, tenant tenancy.Tenant) {
	now := time.Now().UTC()
	for _, p := range []tenancy.Platform{tenancy.PlatformInstagram, tenancy.PlatformFacebook} {
		if !tenant.PlatformEnabled(p) {
			continue
		}
		if err := s.tenants.TouchPlatformSync(ctx, tenant.ID, p, now); err != nil {
			s.log.WithContext(ctx).DatabaseError("touch_platform_sync", err)
		}
	}
}

// Eligible reports whether tenant takes part in job.
func Eligible(job Job, tenant tenancy.Tenant) bool {
	if !tenant.IsActive() {
		return false
	}
	switch job {
	case JobSync:
		return tenant.AnyPlatformEnabled()
	case JobAutoReply:
		return tenant.Settings.AutoReplyEnabled
	case JobLeadGeneration:
		return tenant.Settings.LeadGenerationEnabled
	}
	return false
}
