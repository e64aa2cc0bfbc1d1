// Package service drives the engagement pipeline for one tenant at a time:
// answering new comments, turning buying signals into leads and pulling
// comments from the platforms.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"engagement_backend/internal/connector"
	"engagement_backend/internal/engagement/repository"
	"engagement_backend/internal/events"
	leadrepo "engagement_backend/internal/leads/repository"
	"engagement_backend/internal/replygen"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"
	"engagement_backend/platform/config"
	"engagement_backend/platform/logger"
	"engagement_backend/platform/metrics"
	"engagement_backend/platform/sanitize"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize   = 10
	replyConcurrency   = 4
	leadCandidateLimit = 500
)

// Stages at which a reply attempt can fail.
const (
	StageGenerate = "generate"
	StageSend     = "send"
	StageRecord   = "record"
)

// Outcome statuses.
const (
	OutcomeReplied = "replied"
	OutcomeFailed  = "failed"
)

// CommentStore is the comment storage the orchestrator needs.
type CommentStore interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Comment, error)
	ListUnreplied(ctx context.Context, tenantID uuid.UUID, limit int) ([]repository.Comment, error)
	ListLeadCandidates(ctx context.Context, tenantID uuid.UUID, limit int) ([]repository.Comment, error)
	MarkReplied(ctx context.Context, tenantID, id uuid.UUID, u repository.ReplyUpdate) (repository.Comment, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, u repository.CommentUpdate) (repository.Comment, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Comment, int, error)
}

// LeadStore creates leads linked to comments.
type LeadStore interface {
	Create(ctx context.Context, params leadrepo.CreateParams) (leadrepo.Lead, bool, error)
}

// Connectors builds a platform client for a tenant.
type Connectors interface {
	For(tenant tenancy.Tenant, platform tenancy.Platform) (connector.Connector, error)
}

// Ingestor stores comments fetched from a platform.
type Ingestor interface {
	IngestComment(ctx context.Context, tenant tenancy.Tenant, platform tenancy.Platform, ec connector.ExternalComment) (repository.Comment, bool, error)
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Comments   CommentStore
	Leads      LeadStore
	Connectors Connectors
	Generator  replygen.Generator
	Ingestor   Ingestor
	EventBus   events.Bus
	Metrics    *metrics.Metrics
	Logger     *logger.Logger
}

// Outcome is the result of one auto-reply attempt.
type Outcome struct {
	CommentID uuid.UUID
	Status    string
	Stage     string
	Err       error
}

// ReplyRequest is a manual reply. With Auto set and Text empty the reply
// text is generated.
type ReplyRequest struct {
	Text string
	Auto bool
}

// SyncResult counts what a sync pulled in.
type SyncResult struct {
	Fetched int
	Created int
}

type Orchestrator struct {
	comments    CommentStore
	leads       LeadStore
	connectors  Connectors
	generator   replygen.Generator
	ingestor    Ingestor
	eventBus    events.Bus
	metrics     *metrics.Metrics
	log         *logger.Logger
	batchSize   int
	itemTimeout time.Duration
	now         func() time.Time

	// inflight holds comment ids with a reply in progress in this process.
	inflight sync.Map
}

func NewOrchestrator(deps Deps, cfg config.EngagementConfig) *Orchestrator {
	batch := cfg.GetAutoReplyBatchSize()
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Orchestrator{
		comments:    deps.Comments,
		leads:       deps.Leads,
		connectors:  deps.Connectors,
		generator:   deps.Generator,
		ingestor:    deps.Ingestor,
		eventBus:    deps.EventBus,
		metrics:     deps.Metrics,
		log:         deps.Logger,
		batchSize:   batch,
		itemTimeout: cfg.GetExternalCallTimeout(),
		now:         time.Now,
	}
}

// ProcessUnreplied answers up to limit new comments of tenant. Nothing is
// selected when the tenant has auto-reply switched off. Each comment gets its
// own timeout; failures are returned as outcomes and the comment stays new
// for the next sweep.
func (o *Orchestrator) ProcessUnreplied(ctx context.Context, tenant tenancy.Tenant, limit int) ([]Outcome, error) {
	if !tenant.Settings.AutoReplyEnabled {
		return nil, nil
	}
	if limit <= 0 {
		limit = o.batchSize
	}

	pending, err := o.comments.ListUnreplied(ctx, tenant.ID, limit)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(replyConcurrency)
	for i, c := range pending {
		g.Go(func() error {
			itemCtx, cancel := o.withItemTimeout(gctx)
			defer cancel()

			outcome := Outcome{CommentID: c.ID, Status: OutcomeReplied}
			if _, stage, err := o.reply(itemCtx, tenant, c, "", true, nil); err != nil {
				outcome = Outcome{CommentID: c.ID, Status: OutcomeFailed, Stage: stage, Err: err}
				o.log.WithContext(ctx).Warn("auto reply failed",
					"tenant_id", tenant.ID.String(),
					"comment_id", c.ID.String(),
					"stage", stage,
					"error", err.Error(),
				)
			}
			outcomes[i] = outcome
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, nil
}

// Reply sends a manual reply. A comment that is already answered fails with
// an already-replied conflict and nothing is sent.
func (o *Orchestrator) Reply(ctx context.Context, tenant tenancy.Tenant, actorID, commentID uuid.UUID, req ReplyRequest) (repository.Comment, error) {
	c, err := o.comments.GetByID(ctx, tenant.ID, commentID)
	if err != nil {
		return repository.Comment{}, err
	}
	if c.IsReplied {
		return repository.Comment{}, apperr.AlreadyReplied()
	}

	// A generated reply replaces any supplied text.
	generate := req.Auto && tenant.Settings.AutoReplyEnabled
	text := ""
	if !generate {
		text = sanitize.Reply(req.Text)
	}
	if text == "" && !generate {
		if req.Auto {
			return repository.Comment{}, apperr.Validation("auto reply is disabled for this tenant")
		}
		return repository.Comment{}, apperr.Validation("reply text is required")
	}

	updated, _, err := o.reply(ctx, tenant, c, text, generate, &actorID)
	if err != nil {
		return repository.Comment{}, err
	}
	return updated, nil
}

// reply generates text when needed, sends it and records the reply. The
// comment is only marked replied after the platform accepted the reply.
func (o *Orchestrator) reply(ctx context.Context, tenant tenancy.Tenant, c repository.Comment, text string, auto bool, actorID *uuid.UUID) (repository.Comment, string, error) {
	if _, busy := o.inflight.LoadOrStore(c.ID, struct{}{}); busy {
		return repository.Comment{}, StageSend, apperr.AlreadyReplied()
	}
	defer o.inflight.Delete(c.ID)

	current, err := o.comments.GetByID(ctx, tenant.ID, c.ID)
	if err != nil {
		return repository.Comment{}, StageRecord, err
	}
	if current.IsReplied {
		return repository.Comment{}, StageSend, apperr.AlreadyReplied()
	}

	if text == "" {
		generated, err := o.generator.Generate(ctx, c.Text, tenant.AIConfig, replygen.ReplyContext{Sentiment: c.Sentiment})
		if err != nil {
			o.metrics.ReplyFailed(StageGenerate)
			return repository.Comment{}, StageGenerate, replygen.GenerationError(err)
		}
		text = sanitize.Reply(generated)
		if text == "" {
			o.metrics.ReplyFailed(StageGenerate)
			return repository.Comment{}, StageGenerate, replygen.GenerationError(fmt.Errorf("empty reply"))
		}
	}

	conn, err := o.connectors.For(tenant, c.Platform)
	if err != nil {
		o.metrics.ReplyFailed(StageSend)
		return repository.Comment{}, StageSend, err
	}
	if _, err := conn.SendReply(ctx, c.CommentID, text); err != nil {
		o.metrics.ReplyFailed(StageSend)
		return repository.Comment{}, StageSend, connector.AsAppError(err)
	}

	// The platform has the reply now. A failure below leaves a sent but
	// unrecorded reply; the next attempt may send it again.
	updated, err := o.comments.MarkReplied(context.WithoutCancel(ctx), tenant.ID, c.ID, repository.ReplyUpdate{
		Text:   text,
		SentAt: o.now(),
		Auto:   auto,
	})
	if err != nil {
		o.metrics.ReplyFailed(StageRecord)
		o.log.WithContext(ctx).Error("reply sent but not recorded",
			"tenant_id", tenant.ID.String(),
			"comment_id", c.ID.String(),
			"error", err.Error(),
		)
		return repository.Comment{}, StageRecord, err
	}

	mode := "manual"
	if actorID == nil {
		mode = "auto"
	}
	o.metrics.ReplySent(mode)
	o.eventBus.Publish(ctx, events.CommentReplied{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenant.ID,
		CommentID: c.ID,
		Platform:  string(c.Platform),
		Auto:      auto,
		ActorID:   actorID,
	})
	return updated, "", nil
}

func (o *Orchestrator) withItemTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.itemTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.itemTimeout)
}

// UpdateComment applies a manual status or assignee change.
func (o *Orchestrator) UpdateComment(ctx context.Context, tenant tenancy.Tenant, id uuid.UUID, u repository.CommentUpdate) (repository.Comment, error) {
	if u.Status != nil && !u.Status.Valid() {
		return repository.Comment{}, apperr.Validation(fmt.Sprintf("invalid status %q", *u.Status))
	}
	return o.comments.Update(ctx, tenant.ID, id, u)
}

// GetComment returns one comment of tenant.
func (o *Orchestrator) GetComment(ctx context.Context, tenant tenancy.Tenant, id uuid.UUID) (repository.Comment, error) {
	return o.comments.GetByID(ctx, tenant.ID, id)
}

// ListComments returns a filtered page of tenant's comments.
func (o *Orchestrator) ListComments(ctx context.Context, params repository.ListParams) ([]repository.Comment, int, error) {
	return o.comments.List(ctx, params)
}

// Sync pulls comments on postIDs from platform into storage.
func (o *Orchestrator) Sync(ctx context.Context, tenant tenancy.Tenant, platform tenancy.Platform, postIDs []string) (SyncResult, error) {
	conn, err := o.connectors.For(tenant, platform)
	if err != nil {
		return SyncResult{}, err
	}

	var res SyncResult
	var errs []error
	for _, postID := range postIDs {
		fetched, err := conn.FetchComments(ctx, postID)
		if err != nil {
			errs = append(errs, fmt.Errorf("post %s: %w", postID, connector.AsAppError(err)))
			continue
		}
		for _, ec := range fetched {
			if ec.PostID == "" {
				ec.PostID = postID
			}
			_, created, err := o.ingestor.IngestComment(ctx, tenant, platform, ec)
			if err != nil {
				errs = append(errs, fmt.Errorf("comment %s: %w", ec.ID, err))
				continue
			}
			res.Fetched++
			if created {
				res.Created++
			}
		}
	}

	if res.Fetched > 0 {
		o.eventBus.Publish(ctx, events.CommentsIngested{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  tenant.ID,
			Platform:  string(platform),
			Origin:    "sync",
			Seen:      res.Fetched,
			Created:   res.Created,
		})
	}
	return res, errors.Join(errs...)
}

// SyncTenant syncs the watched posts of every enabled platform of tenant.
func (o *Orchestrator) SyncTenant(ctx context.Context, tenant tenancy.Tenant) (SyncResult, error) {
	var total SyncResult
	var errs []error
	for _, platform := range []tenancy.Platform{tenancy.PlatformInstagram, tenancy.PlatformFacebook} {
		if !tenant.PlatformEnabled(platform) {
			continue
		}
		cfg, _ := tenant.PlatformConfigFor(platform)
		if len(cfg.WatchedPostIDs) == 0 {
			continue
		}
		res, err := o.Sync(ctx, tenant, platform, cfg.WatchedPostIDs)
		total.Fetched += res.Fetched
		total.Created += res.Created
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", platform, err))
		}
	}
	return total, errors.Join(errs...)
}
