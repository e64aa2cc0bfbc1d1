package access

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func withIdentity(userID uuid.UUID, userType tenancy.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, userID)
		c.Set(httpkit.ContextUserTypeKey, string(userType))
		c.Next()
	}
}

func TestClaimedTenantIDPrecedence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	var seen, body string
	capture := func(c *gin.Context) {
		seen = ClaimedTenantID(c)
		raw, _ := io.ReadAll(c.Request.Body)
		body = string(raw)
		c.Status(http.StatusOK)
	}
	engine.POST("/tenants/:tenantId/x", capture)
	engine.POST("/x", capture)

	req := httptest.NewRequest(http.MethodPost, "/tenants/path-id/x", strings.NewReader(`{"tenant":"body-id"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderTenantID, "header-id")
	engine.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "path-id" {
		t.Fatalf("expected path to win, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"tenant":"body-id","text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderTenantID, "header-id")
	engine.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "body-id" {
		t.Fatalf("expected body to win over header, got %q", seen)
	}
	if body != `{"tenant":"body-id","text":"hi"}` {
		t.Fatalf("expected body to be restored for the handler, got %q", body)
	}

	req = httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set(HeaderTenantID, "header-id")
	engine.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "header-id" {
		t.Fatalf("expected header fallback, got %q", seen)
	}
}

func TestGuardEnforcesPermission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tenantID := uuid.New()
	agentID := uuid.New()
	role := &tenancy.Role{
		TenantID:    tenantID,
		IsActive:    true,
		Permissions: tenancy.PermissionMatrix{tenancy.ResourceComments: {tenancy.ActionView: true}},
	}
	resolver := NewResolver(
		fakeTenants{tenantID: {ID: tenantID, Status: tenancy.TenantActive}},
		&fakeMemberships{items: map[[2]uuid.UUID]tenancy.Membership{
			{agentID, tenantID}: {UserID: agentID, TenantID: tenantID, Role: role, Status: tenancy.MembershipActive},
		}},
	)
	guard := NewGuard(resolver)

	engine := gin.New()
	group := engine.Group("/tenants/:tenantId", withIdentity(agentID, tenancy.UserTypeAgent), guard.RequireTenant())
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	group.GET("/comments", RequirePermission(tenancy.ResourceComments, tenancy.ActionView), ok)
	group.POST("/comments/reply", RequirePermission(tenancy.ResourceComments, tenancy.ActionReply), ok)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tenants/"+tenantID.String()+"/comments", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected view to pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tenants/"+tenantID.String()+"/comments/reply", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected reply to be forbidden, got %d", rec.Code)
	}
	var resp httpkit.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != "permission_denied" {
		t.Fatalf("expected permission_denied code, got %q", resp.Code)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tenants/"+uuid.NewString()+"/comments", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected unknown tenant to be 404, got %d", rec.Code)
	}
}
