// Package identity provides the tenant administration bounded context module.
package identity

import (
	"engagement_backend/internal/events"
	apphttp "engagement_backend/internal/http"
	"engagement_backend/internal/identity/handler"
	"engagement_backend/internal/identity/repository"
	"engagement_backend/internal/identity/service"
	"engagement_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(repo *repository.Repository, eventBus events.Bus, val *validator.Validator) *Module {
	svc := service.New(repo, eventBus)
	return &Module{handler: handler.New(svc, val), service: svc}
}

func (m *Module) Name() string {
	return "identity"
}

func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterTenantRoutes(ctx.Tenant)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)
