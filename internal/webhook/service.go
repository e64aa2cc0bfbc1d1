// Package webhook receives platform webhook deliveries and hands them to the
// ingestion gateway.
package webhook

import (
	"context"
	"strings"

	"engagement_backend/internal/events"
	"engagement_backend/internal/ingestion"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"
	"engagement_backend/platform/logger"

	"github.com/google/uuid"
)

const originWebhook = "webhook"

// TenantFinder looks tenants up by id or slug.
type TenantFinder interface {
	GetTenant(ctx context.Context, id uuid.UUID) (tenancy.Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (tenancy.Tenant, error)
}

// Ingestor stores a normalized event.
type Ingestor interface {
	IngestEvent(ctx context.Context, tenant tenancy.Tenant, ev ingestion.Event) (ingestion.Result, error)
}

type Service struct {
	tenants  TenantFinder
	ingestor Ingestor
	eventBus events.Bus
	log      *logger.Logger
}

func NewService(tenants TenantFinder, ingestor Ingestor, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{tenants: tenants, ingestor: ingestor, eventBus: eventBus, log: log}
}

// TenantByID resolves a tenant from a path id. A malformed id is reported
// as an unknown tenant.
func (s *Service) TenantByID(ctx context.Context, raw string) (tenancy.Tenant, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return tenancy.Tenant{}, apperr.TenantNotFound()
	}
	return s.tenants.GetTenant(ctx, id)
}

func (s *Service) TenantBySlug(ctx context.Context, slug string) (tenancy.Tenant, error) {
	return s.tenants.GetTenantBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

// Receive normalizes and stores one delivery. Failures are logged and never
// returned; the platform only needs an acknowledgement.
func (s *Service) Receive(ctx context.Context, tenant tenancy.Tenant, platform string, body map[string]interface{}) {
	log := s.log.WithContext(ctx).WithTenantID(tenant.ID.String())
	if !tenant.IsActive() {
		log.Warn("webhook for inactive tenant ignored", "platform", platform, "status", string(tenant.Status))
		return
	}

	ev := ingestion.Normalize(platform, body)
	res, err := s.ingestor.IngestEvent(ctx, tenant, ev)
	if err != nil {
		log.Error("webhook ingest failed", "platform", platform, "type", string(ev.Type), "error", err)
		return
	}
	if !res.Created {
		log.Debug("duplicate webhook delivery", "platform", platform, "externalId", ev.ExternalID)
		return
	}

	s.eventBus.Publish(ctx, events.CommentsIngested{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenant.ID,
		Platform:  string(ev.Platform),
		Origin:    originWebhook,
		Seen:      1,
		Created:   1,
	})
}
