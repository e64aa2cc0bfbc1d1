package service

import (
	"context"
	"errors"
	"fmt"

	"engagement_backend/internal/engagement/repository"
	"engagement_backend/internal/events"
	leadrepo "engagement_backend/internal/leads/repository"
	"engagement_backend/internal/leads/scoring"
	"engagement_backend/internal/tenancy"

	"github.com/google/uuid"
)

const leadMinScore = 0.5

// GenerateLeads turns the tenant's qualifying comments into leads. A comment
// yields at most one lead; comments that already have one are skipped. Leads
// created before a failure are still returned.
func (o *Orchestrator) GenerateLeads(ctx context.Context, tenant tenancy.Tenant) ([]leadrepo.Lead, error) {
	candidates, err := o.comments.ListLeadCandidates(ctx, tenant.ID, leadCandidateLimit)
	if err != nil {
		return nil, err
	}

	created := make([]leadrepo.Lead, 0)
	var errs []error
	for _, c := range candidates {
		if !qualifiesForLead(c) {
			continue
		}
		lead, ok, err := o.leads.Create(ctx, leadFromComment(tenant.ID, c))
		if err != nil {
			errs = append(errs, fmt.Errorf("comment %s: %w", c.ID, err))
			continue
		}
		if !ok {
			continue
		}

		created = append(created, lead)
		o.metrics.LeadGenerated()
		commentID := c.ID
		o.eventBus.Publish(ctx, events.LeadGenerated{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  tenant.ID,
			LeadID:    lead.ID,
			CommentID: &commentID,
			Source:    lead.Source,
			Name:      lead.Name,
			Priority:  lead.Priority,
			Score:     lead.Score,
		})
	}
	return created, errors.Join(errs...)
}

// qualifiesForLead: not yet a lead, still open, positive or clearly warm, and
// asking about buying.
func qualifiesForLead(c repository.Comment) bool {
	if c.IsLead {
		return false
	}
	if c.Status != repository.StatusNew && c.Status != repository.StatusInProgress {
		return false
	}
	if c.Sentiment != "positive" && c.SentimentScore <= leadMinScore {
		return false
	}
	return scoring.HasInterest(c.Text)
}

func leadFromComment(tenantID uuid.UUID, c repository.Comment) leadrepo.CreateParams {
	commentID := c.ID
	params := leadrepo.CreateParams{
		TenantID:        tenantID,
		Source:          string(c.Platform),
		CommentRowID:    &commentID,
		Name:            scoring.DisplayName(c.Author.Name, c.Author.Username),
		Status:          "new",
		Priority:        string(scoring.PriorityFor(c.SentimentScore)),
		Score:           scoring.Score(c.SentimentScore),
		Tags:            []string{},
		OriginalComment: stringPtr(c.Text),
		Sentiment:       stringPtr(c.Sentiment),
	}
	if c.Author.Username != "" {
		params.Username = stringPtr(c.Author.Username)
	}
	if url := scoring.ProfileURL(string(c.Platform), c.Author.ID); url != "" {
		params.PlatformProfileURL = &url
	}
	return params
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
