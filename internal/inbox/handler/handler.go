package handler

import (
	"net/http"

	"engagement_backend/internal/access"
	"engagement_backend/internal/inbox/service"
	"engagement_backend/internal/inbox/transport"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/httpkit"
	"engagement_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidItemID    = "invalid inbox item id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", access.RequirePermission(tenancy.ResourceComments, tenancy.ActionView), h.List)
	rg.POST("/:id/read", access.RequirePermission(tenancy.ResourceComments, tenancy.ActionView), h.MarkRead)
	rg.POST("/:id/assign", access.RequirePermission(tenancy.ResourceComments, tenancy.ActionModerate), h.Assign)
}

func (h *Handler) List(c *gin.Context) {
	tc, p, ok := access.Caller(c)
	if !ok {
		return
	}

	var req transport.ListInboxRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.List(c.Request.Context(), tc.Tenant.ID, p.UserID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) MarkRead(c *gin.Context) {
	tc, _, ok := access.Caller(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidItemID, nil)
		return
	}

	resp, err := h.svc.MarkRead(c.Request.Context(), tc.Tenant.ID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Assign(c *gin.Context) {
	tc, _, ok := access.Caller(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidItemID, nil)
		return
	}

	var req transport.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var assignee *uuid.UUID
	if req.AssignedTo != nil {
		parsed, err := uuid.Parse(*req.AssignedTo)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "assignedTo must be a uuid")
			return
		}
		assignee = &parsed
	}

	resp, err := h.svc.Assign(c.Request.Context(), tc.Tenant.ID, id, assignee)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}
