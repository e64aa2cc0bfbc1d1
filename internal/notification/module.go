// Package notification sends out-of-band alerts for domain events.
package notification

import (
	"context"
	"fmt"

	"engagement_backend/internal/email"
	"engagement_backend/internal/events"
	leadrepo "engagement_backend/internal/leads/repository"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/logger"

	"github.com/google/uuid"
)

// TenantLookup resolves the contact address of a tenant.
type TenantLookup interface {
	GetTenant(ctx context.Context, id uuid.UUID) (tenancy.Tenant, error)
}

// LeadLookup loads the stored lead behind a LeadGenerated event.
type LeadLookup interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (leadrepo.Lead, error)
}

// Module emails the tenant contact address when an important lead arrives.
type Module struct {
	sender  email.Sender
	tenants TenantLookup
	leads   LeadLookup
	log     *logger.Logger
}

func New(sender email.Sender, tenants TenantLookup, leads LeadLookup, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Module{sender: sender, tenants: tenants, leads: leads, log: log}
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadGenerated{}.EventName(), m)
	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadGenerated:
		return m.handleLeadGenerated(ctx, e)
	default:
		return nil
	}
}

func alertWorthy(priority string) bool {
	return priority == "high" || priority == "urgent"
}

func (m *Module) handleLeadGenerated(ctx context.Context, e events.LeadGenerated) error {
	if !alertWorthy(e.Priority) {
		return nil
	}

	tenant, err := m.tenants.GetTenant(ctx, e.TenantID)
	if err != nil {
		return fmt.Errorf("lead alert tenant lookup: %w", err)
	}
	if tenant.Email == "" {
		return nil
	}

	alert := email.LeadAlert{
		TenantName: tenant.Name,
		LeadName:   e.Name,
		Source:     e.Source,
		Priority:   e.Priority,
		Score:      e.Score,
		CreatedAt:  e.OccurredAt(),
	}
	if m.leads != nil {
		lead, err := m.leads.GetByID(ctx, e.TenantID, e.LeadID)
		if err != nil {
			m.log.WithTenantID(e.TenantID.String()).Warn("lead alert without lead details",
				"leadId", e.LeadID.String(), "error", err)
		} else {
			alert.CreatedAt = lead.CreatedAt
			if lead.OriginalComment != nil {
				alert.Comment = *lead.OriginalComment
			}
		}
	}

	if err := m.sender.SendLeadAlertEmail(ctx, tenant.Email, alert); err != nil {
		return fmt.Errorf("send lead alert: %w", err)
	}
	m.log.WithTenantID(e.TenantID.String()).Info("lead alert sent",
		"leadId", e.LeadID.String(), "priority", e.Priority)
	return nil
}

var _ events.Handler = (*Module)(nil)
