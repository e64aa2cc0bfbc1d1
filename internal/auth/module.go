// Package auth provides the authentication bounded context module.
package auth

import (
	"engagement_backend/internal/auth/handler"
	"engagement_backend/internal/auth/service"
	"engagement_backend/internal/events"
	apphttp "engagement_backend/internal/http"
	"engagement_backend/internal/identity/repository"
	"engagement_backend/platform/config"
	"engagement_backend/platform/logger"
	"engagement_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the auth module on top of the identity repository.
func NewModule(repo *repository.Repository, cfg config.AuthServiceConfig, eventBus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	svc := service.New(repo, cfg, eventBus, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

func (m *Module) Name() string {
	return "auth"
}

func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public auth routes with stricter rate limiting
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(authGroup)

	ctx.Protected.GET("/auth/me", m.handler.Me)
}

var _ apphttp.Module = (*Module)(nil)
