package webhook

import (
	"engagement_backend/internal/events"
	apphttp "engagement_backend/internal/http"
	"engagement_backend/platform/config"
	"engagement_backend/platform/logger"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

func NewModule(tenants TenantFinder, ingestor Ingestor, eventBus events.Bus, cfg config.WebhookConfig, log *logger.Logger) *Module {
	service := NewService(tenants, ingestor, eventBus, log)
	return &Module{handler: NewHandler(service, cfg.GetWebhookVerifyToken())}
}

func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the public receivers behind the webhook rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/webhooks")
	group.Use(ctx.WebhookRateLimiter.RateLimit())
	m.handler.RegisterRoutes(group)
}

var _ apphttp.Module = (*Module)(nil)
