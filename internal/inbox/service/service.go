// Package service implements the unified inbox: every stored platform event
// (comments, direct messages, reactions, mentions) in one list.
package service

import (
	"context"

	"engagement_backend/internal/inbox/repository"
	"engagement_backend/internal/inbox/transport"
	"engagement_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// Repository is the inbox storage the service needs.
type Repository interface {
	MarkRead(ctx context.Context, tenantID, id uuid.UUID) (repository.Item, error)
	Assign(ctx context.Context, tenantID, id uuid.UUID, assignee *uuid.UUID) (repository.Item, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Item, int, error)
}

// MemberChecker reports whether a user is an active member of a tenant.
type MemberChecker interface {
	IsActiveMember(ctx context.Context, tenantID, userID uuid.UUID) (bool, error)
}

type Service struct {
	repo    Repository
	members MemberChecker
}

func New(repo Repository, members MemberChecker) *Service {
	return &Service{repo: repo, members: members}
}

// List returns items of tenantID. With Mine set only items assigned to userID are returned.
func (s *Service) List(ctx context.Context, tenantID, userID uuid.UUID, req transport.ListInboxRequest) (transport.InboxListResponse, error) {
	limit := req.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	params := repository.ListParams{
		TenantID: tenantID,
		Type:     req.Type,
		Platform: req.Platform,
		Read:     req.Read,
		Urgency:  req.Urgency,
		Status:   req.Status,
		Limit:    limit,
		Offset:   offset,
	}
	if req.Mine {
		params.AssignedTo = &userID
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.InboxListResponse{}, err
	}

	out := make([]transport.InboxItemResponse, len(items))
	for i, it := range items {
		out[i] = ToResponse(it)
	}
	return transport.InboxListResponse{Items: out, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) MarkRead(ctx context.Context, tenantID, id uuid.UUID) (transport.InboxItemResponse, error) {
	it, err := s.repo.MarkRead(ctx, tenantID, id)
	if err != nil {
		return transport.InboxItemResponse{}, err
	}
	return ToResponse(it), nil
}

// Assign hands an item to a member of the tenant, or clears the assignee when nil.
func (s *Service) Assign(ctx context.Context, tenantID, id uuid.UUID, assignee *uuid.UUID) (transport.InboxItemResponse, error) {
	if assignee != nil {
		ok, err := s.members.IsActiveMember(ctx, tenantID, *assignee)
		if err != nil {
			return transport.InboxItemResponse{}, err
		}
		if !ok {
			return transport.InboxItemResponse{}, apperr.Validation("assignee is not a member of this tenant")
		}
	}

	it, err := s.repo.Assign(ctx, tenantID, id, assignee)
	if err != nil {
		return transport.InboxItemResponse{}, err
	}
	return ToResponse(it), nil
}

func ToResponse(it repository.Item) transport.InboxItemResponse {
	resp := transport.InboxItemResponse{
		ID:              it.ID.String(),
		Type:            it.Type,
		Platform:        it.Platform,
		PostID:          it.PostID,
		ExternalID:      it.ExternalID,
		ThreadID:        it.ThreadID,
		MessageText:     it.MessageText,
		Direction:       it.Direction,
		AuthorID:        it.AuthorID,
		AuthorUsername:  it.AuthorUsername,
		AuthorName:      it.AuthorName,
		Recipient:       it.Recipient,
		Read:            it.Read,
		Status:          it.Status,
		Urgency:         it.Urgency,
		Sentiment:       it.Sentiment,
		SentimentScore:  it.SentimentScore,
		FirstResponseAt: it.FirstResponseAt,
		ClosedAt:        it.ClosedAt,
		CreatedAt:       it.CreatedAt,
	}
	if it.AssignedTo != nil {
		v := it.AssignedTo.String()
		resp.AssignedTo = &v
	}
	return resp
}
