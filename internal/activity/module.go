// Package activity provides the audit trail bounded context module.
package activity

import (
	"engagement_backend/internal/activity/handler"
	"engagement_backend/internal/activity/repository"
	"engagement_backend/internal/activity/service"
	"engagement_backend/internal/events"
	apphttp "engagement_backend/internal/http"
	"engagement_backend/platform/logger"
	"engagement_backend/platform/validator"
)

// Module is the activity bounded context module implementing http.Module.
type Module struct {
	svc     *service.Service
	handler *handler.Handler
}

// NewModule wires the activity module and subscribes its recorder to bus.
func NewModule(repo *repository.Repository, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, log)
	svc.RegisterHandlers(bus)
	return &Module{svc: svc, handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "activity"
}

// RegisterRoutes mounts the activity list on the tenant-scoped group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Tenant.Group("/tenants/:tenantId/activity"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
