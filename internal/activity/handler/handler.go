package handler

import (
	"net/http"

	"engagement_backend/internal/access"
	"engagement_backend/internal/activity/service"
	"engagement_backend/internal/activity/transport"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/httpkit"
	"engagement_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", access.RequirePermission(tenancy.ResourceAnalytics, tenancy.ActionView), h.List)
}

func (h *Handler) List(c *gin.Context) {
	tc, _, ok := access.Caller(c)
	if !ok {
		return
	}

	var req transport.ListActivityRequest
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
