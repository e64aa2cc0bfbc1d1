package access

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"
	"engagement_backend/platform/httpkit"
	"engagement_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const (
	contextTenantKey = "tenantContext"

	// HeaderTenantID is the lowest-precedence source of the claimed tenant.
	HeaderTenantID = "X-Tenant-ID"

	maxPeekBody = 1 << 20
)

// Guard exposes the resolver and engine as gin middleware.
type Guard struct {
	resolver *Resolver
}

// NewGuard creates a Guard.
func NewGuard(resolver *Resolver) *Guard {
	return &Guard{resolver: resolver}
}

// PrincipalFrom builds a Principal from the authenticated identity.
func PrincipalFrom(id httpkit.Identity) Principal {
	return Principal{UserID: id.UserID(), UserType: tenancy.ParseUserType(id.UserType())}
}

// ClaimedTenantID reads the tenant a request targets. The path parameter
// wins over a "tenant" field in a JSON body, which wins over the X-Tenant-ID header.
func ClaimedTenantID(c *gin.Context) string {
	if v := strings.TrimSpace(c.Param("tenantId")); v != "" {
		return v
	}
	if v := tenantFromBody(c); v != "" {
		return v
	}
	return strings.TrimSpace(c.GetHeader(HeaderTenantID))
}

// tenantFromBody peeks at a JSON body and restores it for the handler.
func tenantFromBody(c *gin.Context) string {
	if c.Request.Body == nil || !strings.HasPrefix(c.ContentType(), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPeekBody))
	_ = c.Request.Body.Close()
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var probe struct {
		Tenant json.RawMessage `json:"tenant"`
	}
	if json.Unmarshal(raw, &probe) != nil || len(probe.Tenant) == 0 {
		return ""
	}
	var id string
	if json.Unmarshal(probe.Tenant, &id) != nil {
		return ""
	}
	return strings.TrimSpace(id)
}

// RequireTenant resolves the claimed tenant and stores the TenantContext.
func (g *Guard) RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpkit.MustGetIdentity(c)
		if id == nil {
			return
		}

		claimed := ClaimedTenantID(c)
		if claimed == "" {
			httpkit.HandleError(c, apperr.Validation("tenant id is required"))
			return
		}

		tc, err := g.resolver.Resolve(c.Request.Context(), PrincipalFrom(id), claimed)
		if httpkit.HandleError(c, err) {
			return
		}

		c.Set(contextTenantKey, tc)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.TenantIDKey, tc.Tenant.ID.String()))
		c.Next()
	}
}

// RequirePermission aborts with 403 unless the caller may perform action on resource.
// It must run after RequireTenant.
func RequirePermission(resource tenancy.Resource, action tenancy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		tc, ok := FromContext(c)
		if !ok {
			httpkit.HandleError(c, apperr.Internal("tenant context missing"))
			return
		}
		id := httpkit.MustGetIdentity(c)
		if id == nil {
			return
		}
		if !Check(PrincipalFrom(id), tc, resource, action) {
			httpkit.HandleError(c, apperr.PermissionDenied())
			return
		}
		c.Next()
	}
}

// RequireTenantAdmin aborts with 403 unless the caller administers the
// resolved tenant. It must run after RequireTenant.
func RequireTenantAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		tc, p, ok := Caller(c)
		if !ok {
			return
		}
		switch CapabilityOf(p, tc).(type) {
		case SuperAdmin, TenantAdmin:
			c.Next()
		default:
			httpkit.HandleError(c, apperr.PermissionDenied())
		}
	}
}

// FromContext returns the TenantContext stored by RequireTenant.
func FromContext(c *gin.Context) (TenantContext, bool) {
	v, ok := c.Get(contextTenantKey)
	if !ok {
		return TenantContext{}, false
	}
	tc, ok := v.(TenantContext)
	return tc, ok
}

// Caller returns the TenantContext and Principal of a tenant-scoped request.
// It writes an error response and returns false when either is missing.
func Caller(c *gin.Context) (TenantContext, Principal, bool) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return TenantContext{}, Principal{}, false
	}
	tc, ok := FromContext(c)
	if !ok {
		httpkit.HandleError(c, apperr.Internal("tenant context missing"))
		return TenantContext{}, Principal{}, false
	}
	return tc, PrincipalFrom(id), true
}
