package router

import (
	"context"
	"net/http"
	"time"

	apphttp "engagement_backend/internal/http"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// New builds the gin engine: global middleware, health and metrics
// endpoints, the shared route groups and every module's routes.
func New(app *apphttp.App) *gin.Engine {
	if app.Config.GetEnv() != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpkit.ExposeInternalErrors(app.Config.GetEnv() == "development")

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(app.Metrics.Middleware())
	engine.Use(cors.New(corsConfig(app.Config)))

	engine.GET("/api/health", func(c *gin.Context) {
		if app.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := app.Health.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(app.Metrics.Handler()))

	authMiddleware := httpkit.AuthRequired(app.Config)

	v1 := engine.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(authMiddleware)

	tenant := v1.Group("")
	tenant.Use(authMiddleware, app.Guard.RequireTenant())

	admin := v1.Group("/admin")
	admin.Use(authMiddleware, httpkit.RequireRole(string(tenancy.UserTypeSuperAdmin)))

	ctx := &apphttp.RouterContext{
		Engine:             engine,
		V1:                 v1,
		Protected:          protected,
		Tenant:             tenant,
		Admin:              admin,
		Config:             app.Config,
		AuthMiddleware:     authMiddleware,
		AuthRateLimiter:    httpkit.NewAuthRateLimiter(app.Logger),
		WebhookRateLimiter: httpkit.NewWebhookRateLimiter(app.Logger),
		Guard:              app.Guard,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Debug("registered module routes", "module", module.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	conf := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", httpkit.HeaderRequestID, "X-Tenant-ID"},
		ExposeHeaders:    []string{httpkit.HeaderRequestID},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = cfg.GetCORSOrigins()
	}
	return conf
}
