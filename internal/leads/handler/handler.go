package handler

import (
	"context"
	"net/http"

	"engagement_backend/internal/access"
	"engagement_backend/internal/leads/repository"
	"engagement_backend/internal/leads/service"
	"engagement_backend/internal/leads/transport"
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
	msgInvalidLeadID    = "invalid lead id"
)

// Generator runs lead generation for one tenant.
type Generator interface {
	GenerateLeads(ctx context.Context, tenant tenancy.Tenant) ([]repository.Lead, error)
}

type Handler struct {
	svc       *service.Service
	generator Generator
	val       *validator.Validator
}

func New(svc *service.Service, generator Generator, val *validator.Validator) *Handler {
	return &Handler{svc: svc, generator: generator, val: val}
}

// RegisterRoutes mounts lead routes on a tenant-resolved group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", access.RequirePermission(tenancy.ResourceLeads, tenancy.ActionView), h.List)
	rg.POST("", access.RequirePermission(tenancy.ResourceLeads, tenancy.ActionCreate), h.Create)
	rg.POST("/generate", access.RequirePermission(tenancy.ResourceLeads, tenancy.ActionCreate), h.Generate)
	rg.GET("/:id", access.RequirePermission(tenancy.ResourceLeads, tenancy.ActionView), h.Get)
	rg.PUT("/:id", access.RequirePermission(tenancy.ResourceLeads, tenancy.ActionUpdate), h.Update)
	rg.DELETE("/:id", access.RequirePermission(tenancy.ResourceLeads, tenancy.ActionDelete), h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	tc, _, ok := access.Caller(c)
	if !ok {
		return
	}

	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.List(c.Request.Context(), tc.Tenant.ID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Get(c *gin.Context) {
	tc, _, ok := access.Caller(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	resp, err := h.svc.Get(c.Request.Context(), tc.Tenant.ID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Create(c *gin.Context) {
	tc, p, ok := access.Caller(c)
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), tc.Tenant.ID, p.UserID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) Update(c *gin.Context) {
	tc, p, ok := access.Caller(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.Update(c.Request.Context(), tc.Tenant.ID, p.UserID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Delete(c *gin.Context) {
	tc, _, ok := access.Caller(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), tc.Tenant.ID, id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// Generate runs the lead sweep for the caller's tenant right away.
func (h *Handler) Generate(c *gin.Context) {
	tc, _, ok := access.Caller(c)
	if !ok {
		return
	}
	if !tc.Tenant.Settings.LeadGenerationEnabled {
		httpkit.HandleError(c, apperr.Forbidden("lead generation is disabled for this tenant"))
		return
	}

	leads, err := h.generator.GenerateLeads(c.Request.Context(), tc.Tenant)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.LeadResponse, len(leads))
	for i, lead := range leads {
		items[i] = service.ToResponse(lead, nil)
	}
	httpkit.OK(c, transport.GenerateLeadsResponse{Created: len(items), Leads: items})
}
