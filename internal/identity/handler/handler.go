package handler

import (
	"net/http"

	"engagement_backend/internal/access"
	"engagement_backend/internal/identity/service"
	"engagement_backend/internal/identity/transport"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/httpkit"
	"engagement_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidRoleID    = "invalid role id"
	msgInvalidTenantID  = "invalid tenant id"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterTenantRoutes mounts routes that act on the resolved tenant.
func (h *Handler) RegisterTenantRoutes(rg *gin.RouterGroup) {
	tenant := rg.Group("/tenants/:tenantId")
	tenant.GET("", access.RequirePermission(tenancy.ResourceSettings, tenancy.ActionView), h.GetTenant)
	tenant.PATCH("/settings", access.RequirePermission(tenancy.ResourceSettings, tenancy.ActionUpdate), h.UpdateSettings)

	tenant.GET("/roles", access.RequirePermission(tenancy.ResourceTeam, tenancy.ActionView), h.ListRoles)
	tenant.POST("/roles", access.RequirePermission(tenancy.ResourceTeam, tenancy.ActionManageRoles), h.CreateRole)
	tenant.PATCH("/roles/:roleId", access.RequirePermission(tenancy.ResourceTeam, tenancy.ActionManageRoles), h.UpdateRole)
	tenant.DELETE("/roles/:roleId", access.RequirePermission(tenancy.ResourceTeam, tenancy.ActionManageRoles), h.DeleteRole)

	tenant.POST("/users", access.RequireTenantAdmin(), h.AddMember)
}

// RegisterAdminRoutes mounts super admin routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/tenants/:tenantId/status", h.SetTenantStatus)
	rg.DELETE("/tenants/:tenantId", h.DeleteTenant)
	rg.GET("/stats", h.Stats)
}

func (h *Handler) GetTenant(c *gin.Context) {
	tc, _, ok := access.Caller(c)
	if !ok {
		return
	}
	httpkit.OK(c, service.TenantToResponse(tc.Tenant))
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	tc, _, ok := access.Caller(c)
	if !ok {
		return
	}

	var req transport.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.UpdateSettings(c.Request.Context(), tc.Tenant.ID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) ListRoles(c *gin.Context) {
	tc, _, ok := access.Caller(c)
	if !ok {
		return
	}

	roles, err := h.svc.ListRoles(c.Request.Context(), tc.Tenant.ID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": roles})
}

func (h *Handler) CreateRole(c *gin.Context) {
	tc, p, ok := access.Caller(c)
	if !ok {
		return
	}

	var req transport.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.CreateRole(c.Request.Context(), tc.Tenant.ID, p.UserID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) UpdateRole(c *gin.Context) {
	tc, p, ok := access.Caller(c)
	if !ok {
		return
	}
	roleID, err := uuid.Parse(c.Param("roleId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRoleID, nil)
		return
	}

	var req transport.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.UpdateRole(c.Request.Context(), tc.Tenant.ID, p.UserID, roleID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) DeleteRole(c *gin.Context) {
	tc, p, ok := access.Caller(c)
	if !ok {
		return
	}
	roleID, err := uuid.Parse(c.Param("roleId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRoleID, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteRole(c.Request.Context(), tc.Tenant.ID, p.UserID, roleID)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AddMember(c *gin.Context) {
	tc, p, ok := access.Caller(c)
	if !ok {
		return
	}

	var req transport.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.AddMember(c.Request.Context(), tc.Tenant.ID, p.UserID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) SetTenantStatus(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidTenantID, nil)
		return
	}

	var req transport.UpdateTenantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.SetTenantStatus(c.Request.Context(), tenantID, identity.UserID(), tenancy.TenantStatus(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) DeleteTenant(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidTenantID, nil)
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteTenant(c.Request.Context(), tenantID)) {
		return
	}
	httpkit.OK(c, gin.H{"message": "tenant deleted"})
}

func (h *Handler) Stats(c *gin.Context) {
	resp, err := h.svc.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}
