// Package engagement provides the comment engagement bounded context module.
package engagement

import (
	"engagement_backend/internal/engagement/handler"
	"engagement_backend/internal/engagement/service"
	apphttp "engagement_backend/internal/http"
	"engagement_backend/platform/validator"
)

// Module is the engagement bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the engagement module around a shared orchestrator.
func NewModule(orchestrator *service.Orchestrator, val *validator.Validator) *Module {
	return &Module{handler: handler.New(orchestrator, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "engagement"
}

// RegisterRoutes mounts comment routes on the tenant-scoped group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Tenant.Group("/tenants/:tenantId/comments"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
