// Package ingestion stores inbound comments and inbox events exactly once per
// external id, classifying them on first sight.
package ingestion

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"engagement_backend/internal/connector"
	engrepo "engagement_backend/internal/engagement/repository"
	inboxrepo "engagement_backend/internal/inbox/repository"
	"engagement_backend/internal/sentiment"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/metrics"

	"github.com/google/uuid"
)

// CommentStore inserts comments idempotently.
type CommentStore interface {
	FindByCommentID(ctx context.Context, tenantID uuid.UUID, commentID string) (engrepo.Comment, bool, error)
	InsertIfAbsent(ctx context.Context, in engrepo.NewComment) (engrepo.Comment, bool, error)
}

// InboxStore inserts inbox items idempotently.
type InboxStore interface {
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (inboxrepo.Item, bool, error)
	InsertIfAbsent(ctx context.Context, in inboxrepo.NewItem) (inboxrepo.Item, bool, error)
}

// Result is the outcome of ingesting one webhook event. Comment is set when
// the event was also stored as a replyable comment.
type Result struct {
	Item    inboxrepo.Item
	Comment *engrepo.Comment
	Created bool
}

// Gateway is the single entry point for inbound engagement data.
type Gateway struct {
	comments CommentStore
	inbox    InboxStore
	metrics  *metrics.Metrics
	classify func(string) sentiment.Result
}

func NewGateway(comments CommentStore, inbox InboxStore, m *metrics.Metrics) *Gateway {
	return &Gateway{comments: comments, inbox: inbox, metrics: m, classify: sentiment.Classify}
}

// IngestComment stores a comment pulled from a platform. created is false
// when the comment was already known; the stored row is returned unchanged.
func (g *Gateway) IngestComment(ctx context.Context, tenant tenancy.Tenant, platform tenancy.Platform, ec connector.ExternalComment) (engrepo.Comment, bool, error) {
	if existing, found, err := g.comments.FindByCommentID(ctx, tenant.ID, ec.ID); err != nil {
		return engrepo.Comment{}, false, err
	} else if found {
		g.metrics.Ingested("comment", false)
		return existing, false, nil
	}
	result := g.sentimentFor(tenant, ec.Text)()

	var commentedAt *time.Time
	if !ec.Timestamp.IsZero() {
		ts := ec.Timestamp
		commentedAt = &ts
	}
	raw, _ := json.Marshal(ec)

	c, created, err := g.comments.InsertIfAbsent(ctx, engrepo.NewComment{
		TenantID:       tenant.ID,
		Platform:       platform,
		CommentID:      ec.ID,
		PostID:         ec.PostID,
		Text:           ec.Text,
		Author:         engrepo.Author{ID: ec.Author.ID, Username: ec.Author.Username, Name: ec.Author.Name},
		Sentiment:      string(result.Label),
		SentimentScore: result.Score,
		Likes:          ec.LikeCount,
		CommentedAt:    commentedAt,
		Raw:            raw,
	})
	if err != nil {
		return engrepo.Comment{}, false, err
	}
	g.metrics.Ingested("comment", created)
	return c, created, nil
}

// IngestEvent stores a normalized webhook event in the inbox. Inbound
// comments on a supported platform are also stored as comments so the
// reply and lead sweeps pick them up.
func (g *Gateway) IngestEvent(ctx context.Context, tenant tenancy.Tenant, ev Event) (Result, error) {
	classify := g.sentimentFor(tenant, ev.Text)

	item, created, err := g.storeItem(ctx, tenant, ev, classify)
	if err != nil {
		return Result{}, err
	}
	g.metrics.Ingested(string(ev.Type), created)

	out := Result{Item: item, Created: created}
	if !isReplyableComment(ev) {
		return out, nil
	}

	c, found, err := g.comments.FindByCommentID(ctx, tenant.ID, ev.ExternalID)
	if err != nil {
		return out, err
	}
	if !found {
		result := classify()
		c, _, err = g.comments.InsertIfAbsent(ctx, engrepo.NewComment{
			TenantID:       tenant.ID,
			Platform:       ev.Platform,
			CommentID:      ev.ExternalID,
			PostID:         ev.PostID,
			Text:           ev.Text,
			Author:         engrepo.Author{ID: ev.Author.ID, Username: ev.Author.Username, Name: ev.Author.Name},
			Sentiment:      string(result.Label),
			SentimentScore: result.Score,
			Raw:            ev.Raw,
		})
		if err != nil {
			return out, err
		}
	}
	out.Comment = &c
	return out, nil
}

func (g *Gateway) storeItem(ctx context.Context, tenant tenancy.Tenant, ev Event, classify func() sentiment.Result) (inboxrepo.Item, bool, error) {
	if ev.ExternalID != "" {
		existing, found, err := g.inbox.FindByExternalID(ctx, tenant.ID, ev.ExternalID)
		if err != nil || found {
			return existing, false, err
		}
	}

	result := classify()
	return g.inbox.InsertIfAbsent(ctx, inboxrepo.NewItem{
		TenantID:       tenant.ID,
		Type:           string(ev.Type),
		Platform:       string(ev.Platform),
		PostID:         optional(ev.PostID),
		ExternalID:     optional(ev.ExternalID),
		ThreadID:       optional(ev.ThreadID),
		MessageText:    ev.Text,
		Direction:      ev.Direction,
		AuthorID:       ev.Author.ID,
		AuthorUsername: ev.Author.Username,
		AuthorName:     ev.Author.Name,
		Recipient:      optional(ev.Recipient),
		Urgency:        ev.Urgency,
		Sentiment:      string(result.Label),
		SentimentScore: result.Score,
		Raw:            ev.Raw,
	})
}

// sentimentFor classifies text at most once, and only when called.
func (g *Gateway) sentimentFor(tenant tenancy.Tenant, text string) func() sentiment.Result {
	return sync.OnceValue(func() sentiment.Result {
		if !tenant.Settings.SentimentAnalysisEnabled {
			return sentiment.Result{Label: sentiment.Neutral, Score: 0}
		}
		return g.classify(text)
	})
}

func isReplyableComment(ev Event) bool {
	if ev.Type != TypeComment || ev.Direction != DirectionInbound {
		return false
	}
	if ev.Platform != tenancy.PlatformInstagram && ev.Platform != tenancy.PlatformFacebook {
		return false
	}
	return ev.ExternalID != "" && ev.Text != ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
