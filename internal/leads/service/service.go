// Package service holds the manual lead operations: create, read, update,
// annotate and delete. Automatic lead generation lives in the engagement
// orchestrator and writes through the same repository.
package service

import (
	"context"
	"strings"

	"engagement_backend/internal/events"
	"engagement_backend/internal/leads/repository"
	"engagement_backend/internal/leads/scoring"
	"engagement_backend/internal/leads/transport"
	"engagement_backend/platform/apperr"
	"engagement_backend/platform/phone"
	"engagement_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	sourceManual    = "manual"
	statusNew       = "new"
)

// Repository is the storage the service needs.
type Repository interface {
	Create(ctx context.Context, params repository.CreateParams) (repository.Lead, bool, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Lead, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, params repository.UpdateParams) (repository.Lead, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error)
	AddNote(ctx context.Context, tenantID, leadID uuid.UUID, body string, createdBy *uuid.UUID) (repository.Note, error)
	ListNotes(ctx context.Context, tenantID, leadID uuid.UUID) ([]repository.Note, error)
}

type Service struct {
	repo     Repository
	eventBus events.Bus
}

func New(repo Repository, eventBus events.Bus) *Service {
	return &Service{repo: repo, eventBus: eventBus}
}

// Create stores a manually entered lead. A commentId links and flags the
// source comment; a comment that already has a lead is a conflict.
func (s *Service) Create(ctx context.Context, tenantID, actorID uuid.UUID, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	params := repository.CreateParams{
		TenantID: tenantID,
		Source:   defaultString(req.Source, sourceManual),
		Name:     sanitize.Text(req.Name),
		Email:    optionalString(strings.ToLower(req.Email)),
		Phone:    optionalString(phone.NormalizeE164(req.Phone)),
		Username: optionalString(req.Username),
		Status:   statusNew,
		Priority: defaultString(req.Priority, string(scoring.PriorityMedium)),
		Tags:     normalizeTags(req.Tags),
	}
	if params.Name == "" {
		return transport.LeadResponse{}, apperr.Validation("name is required")
	}
	if req.Score != nil {
		params.Score = *req.Score
	}
	if req.CommentID != "" {
		commentID, err := uuid.Parse(req.CommentID)
		if err != nil {
			return transport.LeadResponse{}, apperr.Validation("invalid comment id")
		}
		params.CommentRowID = &commentID
	}
	if req.AssignedTo != "" {
		assignee, err := uuid.Parse(req.AssignedTo)
		if err != nil {
			return transport.LeadResponse{}, apperr.Validation("invalid assignee id")
		}
		params.AssignedTo = &assignee
	}

	lead, created, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if !created {
		return transport.LeadResponse{}, apperr.Conflict("comment already has a lead")
	}

	s.eventBus.Publish(ctx, events.LeadGenerated{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenantID,
		LeadID:    lead.ID,
		CommentID: params.CommentRowID,
		ActorID:   &actorID,
		Source:    lead.Source,
		Name:      lead.Name,
		Priority:  lead.Priority,
		Score:     lead.Score,
	})

	return ToResponse(lead, nil), nil
}

// Get returns a lead with its notes.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	notes, err := s.repo.ListNotes(ctx, tenantID, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return ToResponse(lead, notes), nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	leads, total, err := s.repo.List(ctx, repository.ListParams{
		TenantID: tenantID,
		Status:   req.Status,
		Priority: req.Priority,
		Source:   req.Source,
		Search:   req.Search,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	})
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadResponse, len(leads))
	for i, lead := range leads {
		items[i] = ToResponse(lead, nil)
	}

	totalPages := (total + pageSize - 1) / pageSize
	return transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update changes lead fields and appends req.Note when present.
func (s *Service) Update(ctx context.Context, tenantID, actorID, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	params := repository.UpdateParams{
		Name:     sanitize.TextPtr(req.Name),
		Email:    req.Email,
		Status:   req.Status,
		Priority: req.Priority,
		Score:    req.Score,
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}
	if req.Tags != nil {
		params.Tags = normalizeTags(req.Tags)
	}
	if req.AssignedTo != nil {
		assignee, err := uuid.Parse(*req.AssignedTo)
		if err != nil {
			return transport.LeadResponse{}, apperr.Validation("invalid assignee id")
		}
		params.AssignedTo = &assignee
	}

	lead, err := s.repo.Update(ctx, tenantID, id, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if note := sanitize.Text(req.Note); note != "" {
		if _, err := s.repo.AddNote(ctx, tenantID, id, note, &actorID); err != nil {
			return transport.LeadResponse{}, err
		}
	}

	notes, err := s.repo.ListNotes(ctx, tenantID, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return ToResponse(lead, notes), nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.Delete(ctx, tenantID, id)
}

// ToResponse maps a stored lead to its API shape.
func ToResponse(lead repository.Lead, notes []repository.Note) transport.LeadResponse {
	resp := transport.LeadResponse{
		ID:                 lead.ID.String(),
		Source:             lead.Source,
		CommentID:          lead.CommentID,
		Name:               lead.Name,
		Email:              lead.Email,
		Phone:              lead.Phone,
		Username:           lead.Username,
		PlatformProfileURL: lead.PlatformProfileURL,
		Status:             lead.Status,
		Priority:           lead.Priority,
		Score:              lead.Score,
		Tags:               lead.Tags,
		OriginalComment:    lead.OriginalComment,
		Sentiment:          lead.Sentiment,
		CreatedAt:          lead.CreatedAt,
		UpdatedAt:          lead.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if lead.AssignedTo != nil {
		v := lead.AssignedTo.String()
		resp.AssignedTo = &v
	}
	for _, n := range notes {
		note := transport.LeadNoteResponse{ID: n.ID.String(), Body: n.Body, CreatedAt: n.CreatedAt}
		if n.CreatedBy != nil {
			v := n.CreatedBy.String()
			note.CreatedBy = &v
		}
		resp.Notes = append(resp.Notes, note)
	}
	return resp
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
