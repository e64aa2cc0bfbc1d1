// Package leads provides the lead management bounded context module.
package leads

import (
	"engagement_backend/internal/events"
	apphttp "engagement_backend/internal/http"
	"engagement_backend/internal/leads/handler"
	"engagement_backend/internal/leads/repository"
	"engagement_backend/internal/leads/service"
	"engagement_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the leads module. generator runs the on-demand lead sweep.
func NewModule(repo *repository.Repository, generator handler.Generator, eventBus events.Bus, val *validator.Validator) *Module {
	svc := service.New(repo, eventBus)
	return &Module{
		handler: handler.New(svc, generator, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the tenant-scoped group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Tenant.Group("/tenants/:tenantId/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
