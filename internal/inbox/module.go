// Package inbox provides the unified inbox bounded context module.
package inbox

import (
	apphttp "engagement_backend/internal/http"
	"engagement_backend/internal/inbox/handler"
	"engagement_backend/internal/inbox/repository"
	"engagement_backend/internal/inbox/service"
	"engagement_backend/platform/validator"
)

// Module is the inbox bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the inbox module.
func NewModule(repo *repository.Repository, members service.MemberChecker, val *validator.Validator) *Module {
	return &Module{handler: handler.New(service.New(repo, members), val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "inbox"
}

// RegisterRoutes mounts inbox routes on the tenant-scoped group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Tenant.Group("/tenants/:tenantId/inbox"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
