// Package service keeps the per-tenant audit trail. Entries are written by a
// subscriber on the event bus and read back through the activity list.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"engagement_backend/internal/activity/repository"
	"engagement_backend/internal/activity/transport"
	"engagement_backend/internal/events"
	"engagement_backend/platform/apperr"
	"engagement_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// Recorded actions.
const (
	ActionCommentsIngested    = "comments.ingested"
	ActionCommentReplied      = "comment.replied"
	ActionCommentAutoReplied  = "comment.auto_replied"
	ActionLeadGenerated       = "lead.generated"
	ActionTenantRegistered    = "tenant.registered"
	ActionTenantStatusChanged = "tenant.status_changed"
	ActionMemberAdded         = "member.added"
	ActionRolePrefix          = "role."
)

type Repository interface {
	Insert(ctx context.Context, in repository.NewEntry) error
	List(ctx context.Context, params repository.ListParams) ([]repository.Entry, int, error)
}

type Service struct {
	repo Repository
	log  *logger.Logger
}

func New(repo Repository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, log: log}
}

// RegisterHandlers subscribes the recorder to every audited event.
func (s *Service) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.CommentsIngested{}.EventName(), s)
	bus.Subscribe(events.CommentReplied{}.EventName(), s)
	bus.Subscribe(events.LeadGenerated{}.EventName(), s)
	bus.Subscribe(events.TenantRegistered{}.EventName(), s)
	bus.Subscribe(events.TenantStatusChanged{}.EventName(), s)
	bus.Subscribe(events.MemberAdded{}.EventName(), s)
	bus.Subscribe(events.RoleChanged{}.EventName(), s)
}

// Handle turns an event into an audit entry. Unknown events are ignored.
func (s *Service) Handle(ctx context.Context, event events.Event) error {
	entry, ok := entryFor(event)
	if !ok {
		return nil
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.log.DatabaseError("activity.insert", err)
		return fmt.Errorf("record %s: %w", event.EventName(), err)
	}
	return nil
}

// entryFor maps a tenant-scoped event to an audit entry.
func entryFor(event events.Event) (repository.NewEntry, bool) {
	tenantID, ok := events.TenantOf(event)
	if !ok {
		return repository.NewEntry{}, false
	}

	switch e := event.(type) {
	case events.CommentsIngested:
		return newEntry(tenantID, nil, ActionCommentsIngested, "comment", "", map[string]any{
			"platform": e.Platform,
			"origin":   e.Origin,
			"seen":     e.Seen,
			"created":  e.Created,
		}), true
	case events.CommentReplied:
		action := ActionCommentReplied
		if e.Auto {
			action = ActionCommentAutoReplied
		}
		return newEntry(tenantID, e.ActorID, action, "comment", e.CommentID.String(), map[string]any{
			"platform": e.Platform,
		}), true
	case events.LeadGenerated:
		details := map[string]any{
			"source":   e.Source,
			"name":     e.Name,
			"priority": e.Priority,
			"score":    e.Score,
		}
		if e.CommentID != nil {
			details["commentId"] = e.CommentID.String()
		}
		return newEntry(tenantID, e.ActorID, ActionLeadGenerated, "lead", e.LeadID.String(), details), true
	case events.TenantRegistered:
		userID := e.UserID
		return newEntry(tenantID, &userID, ActionTenantRegistered, "tenant", tenantID.String(), map[string]any{
			"slug": e.Slug,
		}), true
	case events.TenantStatusChanged:
		return newEntry(tenantID, nil, ActionTenantStatusChanged, "tenant", tenantID.String(), map[string]any{
			"status":  e.Status,
			"actorId": e.ActorID.String(),
		}), true
	case events.MemberAdded:
		actor := e.ActorID
		details := map[string]any{}
		if e.RoleID != nil {
			details["roleId"] = e.RoleID.String()
		}
		return newEntry(tenantID, &actor, ActionMemberAdded, "membership", e.UserID.String(), details), true
	case events.RoleChanged:
		actor := e.ActorID
		return newEntry(tenantID, &actor, ActionRolePrefix+e.Action, "role", e.RoleID.String(), map[string]any{
			"name": e.Name,
		}), true
	default:
		return repository.NewEntry{}, false
	}
}

func newEntry(tenantID uuid.UUID, userID *uuid.UUID, action, resourceType, resourceID string, details map[string]any) repository.NewEntry {
	raw, err := json.Marshal(details)
	if err != nil {
		raw = []byte(`{}`)
	}
	return repository.NewEntry{
		TenantID:     tenantID,
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      raw,
	}
}

// List returns the newest entries of tenantID first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListActivityRequest) (transport.ActivityListResponse, error) {
	limit := req.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := max(req.Offset, 0)

	params := repository.ListParams{
		TenantID:     tenantID,
		Action:       req.Action,
		ResourceType: req.ResourceType,
		Limit:        limit,
		Offset:       offset,
	}
	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			return transport.ActivityListResponse{}, apperr.Validation("userId must be a uuid")
		}
		params.UserID = &id
	}
	if req.Since != "" {
		since, err := time.Parse(time.RFC3339, req.Since)
		if err != nil {
			return transport.ActivityListResponse{}, apperr.Validation("since must be an RFC 3339 timestamp")
		}
		params.Since = &since
	}

	entries, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.ActivityListResponse{}, err
	}

	out := make([]transport.ActivityResponse, len(entries))
	for i, e := range entries {
		out[i] = toResponse(e)
	}
	return transport.ActivityListResponse{Items: out, Total: total, Limit: limit, Offset: offset}, nil
}

func toResponse(e repository.Entry) transport.ActivityResponse {
	resp := transport.ActivityResponse{
		ID:           e.ID.String(),
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Details:      e.Details,
		CreatedAt:    e.CreatedAt,
	}
	if len(resp.Details) == 0 {
		resp.Details = json.RawMessage(`{}`)
	}
	if e.UserID != nil {
		id := e.UserID.String()
		resp.UserID = &id
	}
	return resp
}

var _ events.Handler = (*Service)(nil)
