package access

import (
	"context"
	"strings"

	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"

	"github.com/google/uuid"
)

// TenantReader loads tenants by ID.
type TenantReader interface {
	GetTenant(ctx context.Context, id uuid.UUID) (tenancy.Tenant, error)
}

// MembershipReader loads a membership with its role attached.
type MembershipReader interface {
	GetMembership(ctx context.Context, userID, tenantID uuid.UUID) (tenancy.Membership, error)
}

// Resolver turns a claimed tenant ID into a TenantContext.
type Resolver struct {
	tenants     TenantReader
	memberships MembershipReader
}

// NewResolver creates a Resolver.
func NewResolver(tenants TenantReader, memberships MembershipReader) *Resolver {
	return &Resolver{tenants: tenants, memberships: memberships}
}

// Resolve validates claimedTenantID, loads the tenant and checks that p
// belongs to it. It is read-only.
func (r *Resolver) Resolve(ctx context.Context, p Principal, claimedTenantID string) (TenantContext, error) {
	tenantID, err := uuid.Parse(strings.TrimSpace(claimedTenantID))
	if err != nil {
		return TenantContext{}, apperr.Validation("invalid tenant id")
	}

	tenant, err := r.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return TenantContext{}, apperr.TenantNotFound()
		}
		return TenantContext{}, err
	}
	if !tenant.IsActive() {
		return TenantContext{}, apperr.TenantInactive()
	}

	if p.UserType == tenancy.UserTypeSuperAdmin {
		return TenantContext{
			Tenant: tenant,
			Membership: tenancy.Membership{
				UserID:   p.UserID,
				TenantID: tenant.ID,
				Status:   tenancy.MembershipActive,
			},
		}, nil
	}

	membership, err := r.memberships.GetMembership(ctx, p.UserID, tenant.ID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return TenantContext{}, apperr.NotAMember()
		}
		return TenantContext{}, err
	}
	if !membership.IsActive() {
		return TenantContext{}, apperr.NotAMember()
	}

	return TenantContext{Tenant: tenant, Membership: membership}, nil
}
