package handler

import (
	"context"
	"net/http"

	"engagement_backend/internal/access"
	"engagement_backend/internal/engagement/repository"
	"engagement_backend/internal/engagement/service"
	"engagement_backend/internal/engagement/transport"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"
	"engagement_backend/platform/httpkit"
	"engagement_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidCommentID = "invalid comment id"

	defaultPageSize = 20
	maxPageSize     = 100
)

// Engagement is the part of the orchestrator the HTTP layer drives.
type Engagement interface {
	GetComment(ctx context.Context, tenant tenancy.Tenant, id uuid.UUID) (repository.Comment, error)
	ListComments(ctx context.Context, params repository.ListParams) ([]repository.Comment, int, error)
	Reply(ctx context.Context, tenant tenancy.Tenant, actorID, commentID uuid.UUID, req service.ReplyRequest) (repository.Comment, error)
	UpdateComment(ctx context.Context, tenant tenancy.Tenant, id uuid.UUID, u repository.CommentUpdate) (repository.Comment, error)
	Sync(ctx context.Context, tenant tenancy.Tenant, platform tenancy.Platform, postIDs []string) (service.SyncResult, error)
}

type Handler struct {
	svc Engagement
	val *validator.Validator
}

func New(svc Engagement, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts comment routes on a tenant-resolved group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", access.RequirePermission(tenancy.ResourceComments, tenancy.ActionView), h.List)
	rg.POST("/sync", access.RequirePermission(tenancy.ResourceComments, tenancy.ActionModerate), h.Sync)
	rg.GET("/:id", access.RequirePermission(tenancy.ResourceComments, tenancy.ActionView), h.Get)
	rg.POST("/:id/reply", access.RequirePermission(tenancy.ResourceComments, tenancy.ActionReply), h.Reply)
	rg.PATCH("/:id", access.RequirePermission(tenancy.ResourceComments, tenancy.ActionModerate), h.Update)
}

// List returns a page of comments. Agents only see comments assigned to them.
func (h *Handler) List(c *gin.Context) {
	tc, p, ok := access.Caller(c)
	if !ok {
		return
	}

	var req transport.ListCommentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	params := repository.ListParams{
		TenantID:  tc.Tenant.ID,
		Platform:  req.Platform,
		Status:    req.Status,
		Sentiment: req.Sentiment,
		IsReplied: req.IsReplied,
		IsLead:    req.IsLead,
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	}
	if access.SeesOnlyAssigned(p, tc) {
		userID := p.UserID
		params.AssignedTo = &userID
	}

	comments, total, err := h.svc.ListComments(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.CommentResponse, len(comments))
	for i, comment := range comments {
		items[i] = toResponse(comment)
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	httpkit.OK(c, transport.CommentListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

func (h *Handler) Get(c *gin.Context) {
	tc, _, ok := access.Caller(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCommentID, nil)
		return
	}

	comment, err := h.svc.GetComment(c.Request.Context(), tc.Tenant, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(comment))
}

// Reply sends a reply to one comment. A comment can only be answered once.
func (h *Handler) Reply(c *gin.Context) {
	tc, p, ok := access.Caller(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCommentID, nil)
		return
	}

	var req transport.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	comment, err := h.svc.Reply(c.Request.Context(), tc.Tenant, p.UserID, id, service.ReplyRequest{
		Text: req.ReplyText,
		Auto: req.AutoReply,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(comment))
}

func (h *Handler) Update(c *gin.Context) {
	tc, _, ok := access.Caller(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCommentID, nil)
		return
	}

	var req transport.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	update := repository.CommentUpdate{ClearAssignee: req.ClearAssignee}
	if req.Status != nil {
		status := repository.Status(*req.Status)
		update.Status = &status
	}
	if req.AssignedTo != nil {
		assignee, err := uuid.Parse(*req.AssignedTo)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "assignedTo must be a uuid")
			return
		}
		update.AssignedTo = &assignee
	}

	comment, err := h.svc.UpdateComment(c.Request.Context(), tc.Tenant, id, update)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(comment))
}

// Sync pulls comments from one platform. Without postIds the tenant's
// watched posts are used.
func (h *Handler) Sync(c *gin.Context) {
	tc, _, ok := access.Caller(c)
	if !ok {
		return
	}

	var req transport.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	platform := tenancy.ParsePlatform(req.Platform)
	postIDs := req.PostIDs
	if len(postIDs) == 0 {
		cfg, _ := tc.Tenant.PlatformConfigFor(platform)
		postIDs = cfg.WatchedPostIDs
	}
	if len(postIDs) == 0 {
		httpkit.HandleError(c, apperr.Validation("no posts to sync"))
		return
	}

	res, err := h.svc.Sync(c.Request.Context(), tc.Tenant, platform, postIDs)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.SyncResponse{Platform: string(platform), Fetched: res.Fetched, Created: res.Created})
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func toResponse(c repository.Comment) transport.CommentResponse {
	resp := transport.CommentResponse{
		ID:        c.ID.String(),
		Platform:  string(c.Platform),
		CommentID: c.CommentID,
		PostID:    c.PostID,
		PostURL:   c.PostURL,
		Text:      c.Text,
		Author: transport.AuthorResponse{
			ID:       c.Author.ID,
			Username: c.Author.Username,
			Name:     c.Author.Name,
		},
		Sentiment:      c.Sentiment,
		SentimentScore: c.SentimentScore,
		IsReplied:      c.IsReplied,
		ReplyText:      c.ReplyText,
		ReplySentAt:    c.ReplySentAt,
		IsAutoReply:    c.IsAutoReply,
		Status:         string(c.Status),
		IsLead:         c.IsLead,
		Likes:          c.Likes,
		CommentedAt:    c.CommentedAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if c.AssignedTo != nil {
		v := c.AssignedTo.String()
		resp.AssignedTo = &v
	}
	if c.LeadID != nil {
		v := c.LeadID.String()
		resp.LeadID = &v
	}
	return resp
}
