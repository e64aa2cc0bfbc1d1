package access

import (
	"testing"

	"engagement_backend/internal/tenancy"

	"github.com/google/uuid"
)

func agentContext(userID uuid.UUID, tenantID uuid.UUID, role *tenancy.Role) TenantContext {
	return TenantContext{
		Tenant: tenancy.Tenant{ID: tenantID, Status: tenancy.TenantActive},
		Membership: tenancy.Membership{
			UserID:   userID,
			TenantID: tenantID,
			Role:     role,
			Status:   tenancy.MembershipActive,
		},
	}
}

func TestSuperAdminAlwaysAllowed(t *testing.T) {
	p := Principal{UserID: uuid.New(), UserType: tenancy.UserTypeSuperAdmin}
	tc := TenantContext{Tenant: tenancy.Tenant{ID: uuid.New()}}

	if !Check(p, tc, tenancy.ResourceTeam, tenancy.ActionManageRoles) {
		t.Fatalf("expected super admin to be allowed")
	}
}

func TestTenantAdminAllowedOnlyInOwnTenant(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()
	p := Principal{UserID: userID, UserType: tenancy.UserTypeTenantAdmin}

	if !Check(p, agentContext(userID, tenantID, nil), tenancy.ResourceSettings, tenancy.ActionUpdate) {
		t.Fatalf("expected tenant admin to be allowed in own tenant")
	}

	foreign := agentContext(userID, tenantID, nil)
	foreign.Tenant.ID = uuid.New()
	if Check(p, foreign, tenancy.ResourceSettings, tenancy.ActionUpdate) {
		t.Fatalf("expected tenant admin to be denied with membership of another tenant")
	}
}

func TestAgentUsesRoleMatrix(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()
	p := Principal{UserID: userID, UserType: tenancy.UserTypeAgent}
	role := &tenancy.Role{
		ID:          uuid.New(),
		TenantID:    tenantID,
		IsActive:    true,
		Permissions: tenancy.PermissionMatrix{tenancy.ResourceComments: {tenancy.ActionView: true, tenancy.ActionReply: true}},
	}
	tc := agentContext(userID, tenantID, role)

	if !Check(p, tc, tenancy.ResourceComments, tenancy.ActionReply) {
		t.Fatalf("expected comments.reply to be allowed")
	}
	if Check(p, tc, tenancy.ResourceComments, tenancy.ActionDelete) {
		t.Fatalf("expected comments.delete to be denied")
	}
	if Check(p, tc, tenancy.ResourceLeads, tenancy.ActionView) {
		t.Fatalf("expected absent resource to be denied")
	}
}

func TestAgentDeniedWithoutUsableRole(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()
	p := Principal{UserID: userID, UserType: tenancy.UserTypeAgent}
	full := tenancy.FullAccess()

	cases := map[string]*tenancy.Role{
		"no role":       nil,
		"inactive role": {TenantID: tenantID, IsActive: false, Permissions: full},
		"foreign role":  {TenantID: uuid.New(), IsActive: true, Permissions: full},
	}
	for name, role := range cases {
		if Check(p, agentContext(userID, tenantID, role), tenancy.ResourceComments, tenancy.ActionView) {
			t.Fatalf("%s: expected denial", name)
		}
	}
}

func TestInactiveMembershipDenied(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()
	p := Principal{UserID: userID, UserType: tenancy.UserTypeTenantAdmin}
	tc := agentContext(userID, tenantID, nil)
	tc.Membership.Status = tenancy.MembershipPending

	if Check(p, tc, tenancy.ResourceComments, tenancy.ActionView) {
		t.Fatalf("expected pending membership to be denied")
	}
	if _, ok := CapabilityOf(p, tc).(NoAccess); !ok {
		t.Fatalf("expected NoAccess capability")
	}
}

func TestSeesOnlyAssigned(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()
	tc := agentContext(userID, tenantID, nil)

	if !SeesOnlyAssigned(Principal{UserID: userID, UserType: tenancy.UserTypeAgent}, tc) {
		t.Fatalf("expected agents to be narrowed to assigned items")
	}
	if SeesOnlyAssigned(Principal{UserID: userID, UserType: tenancy.UserTypeTenantAdmin}, tc) {
		t.Fatalf("expected tenant admins to see everything")
	}
}
