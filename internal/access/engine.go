// Package access implements tenant-scoped authorization: resolving which
// tenant a request acts on and deciding whether a principal may perform an
// action there.
package access

import (
	"engagement_backend/internal/tenancy"

	"github.com/google/uuid"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID   uuid.UUID
	UserType tenancy.UserType
}

// TenantContext is the resolved tenant plus the caller's membership in it.
// For super admins the membership is synthetic: active, no role.
type TenantContext struct {
	Tenant     tenancy.Tenant
	Membership tenancy.Membership
}

// Capability is what a principal can do inside one tenant.
// Exactly one of SuperAdmin, TenantAdmin, Agent or NoAccess.
type Capability interface {
	capability()
}

// SuperAdmin may do anything in any tenant.
type SuperAdmin struct{}

// TenantAdmin may do anything inside TenantID.
type TenantAdmin struct {
	TenantID uuid.UUID
}

// Agent is limited to the permissions of Role inside TenantID.
type Agent struct {
	TenantID uuid.UUID
	Role     *tenancy.Role
}

// NoAccess is returned when the membership does not match the tenant or is not active.
type NoAccess struct{}

func (SuperAdmin) capability()  {}
func (TenantAdmin) capability() {}
func (Agent) capability()       {}
func (NoAccess) capability()    {}

// CapabilityOf derives the capability of p inside tc.
func CapabilityOf(p Principal, tc TenantContext) Capability {
	if p.UserType == tenancy.UserTypeSuperAdmin {
		return SuperAdmin{}
	}

	m := tc.Membership
	if m.UserID != p.UserID || m.TenantID != tc.Tenant.ID || !m.IsActive() {
		return NoAccess{}
	}

	if p.UserType == tenancy.UserTypeTenantAdmin {
		return TenantAdmin{TenantID: tc.Tenant.ID}
	}
	return Agent{TenantID: tc.Tenant.ID, Role: m.Role}
}

// Check reports whether p may perform action on resource inside tc.
// It never mutates state and has no side effects.
func Check(p Principal, tc TenantContext, resource tenancy.Resource, action tenancy.Action) bool {
	switch c := CapabilityOf(p, tc).(type) {
	case SuperAdmin:
		return true
	case TenantAdmin:
		return c.TenantID == tc.Tenant.ID
	case Agent:
		role := c.Role
		if role == nil || !role.IsActive || role.TenantID != c.TenantID {
			return false
		}
		return role.Permissions.Allows(resource, action)
	case NoAccess:
		return false
	default:
		return false
	}
}

// SeesOnlyAssigned reports whether list views must be narrowed to items
// assigned to p. Agents see their own queue; admins see everything.
func SeesOnlyAssigned(p Principal, tc TenantContext) bool {
	_, isAgent := CapabilityOf(p, tc).(Agent)
	return isAgent
}
