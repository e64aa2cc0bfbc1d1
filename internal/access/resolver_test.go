package access

import (
	"context"
	"testing"

	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeTenants map[uuid.UUID]tenancy.Tenant

func (f fakeTenants) GetTenant(_ context.Context, id uuid.UUID) (tenancy.Tenant, error) {
	t, ok := f[id]
	if !ok {
		return tenancy.Tenant{}, apperr.NotFound("tenant not found")
	}
	return t, nil
}

type fakeMemberships struct {
	items map[[2]uuid.UUID]tenancy.Membership
	calls int
}

func (f *fakeMemberships) GetMembership(_ context.Context, userID, tenantID uuid.UUID) (tenancy.Membership, error) {
	f.calls++
	m, ok := f.items[[2]uuid.UUID{userID, tenantID}]
	if !ok {
		return tenancy.Membership{}, apperr.NotFound("membership not found")
	}
	return m, nil
}

func newResolverFixture() (*Resolver, *fakeMemberships, uuid.UUID, uuid.UUID, uuid.UUID) {
	active := uuid.New()
	suspended := uuid.New()
	member := uuid.New()

	tenants := fakeTenants{
		active:    {ID: active, Status: tenancy.TenantActive},
		suspended: {ID: suspended, Status: tenancy.TenantSuspended},
	}
	memberships := &fakeMemberships{items: map[[2]uuid.UUID]tenancy.Membership{
		{member, active}: {UserID: member, TenantID: active, Status: tenancy.MembershipActive},
	}}
	return NewResolver(tenants, memberships), memberships, active, suspended, member
}

func TestResolveErrors(t *testing.T) {
	r, _, active, suspended, member := newResolverFixture()
	ctx := context.Background()
	agent := Principal{UserID: member, UserType: tenancy.UserTypeAgent}

	cases := []struct {
		name    string
		p       Principal
		claimed string
		code    string
	}{
		{"malformed", agent, "not-a-uuid", apperr.CodeValidation},
		{"unknown tenant", agent, uuid.NewString(), apperr.CodeTenantNotFound},
		{"suspended tenant", agent, suspended.String(), apperr.CodeTenantInactive},
		{"not a member", Principal{UserID: uuid.New(), UserType: tenancy.UserTypeAgent}, active.String(), apperr.CodeNotAMember},
	}

	for _, tc := range cases {
		_, err := r.Resolve(ctx, tc.p, tc.claimed)
		if apperr.GetCode(err) != tc.code {
			t.Fatalf("%s: expected code %q, got %v", tc.name, tc.code, err)
		}
	}
}

func TestResolveMember(t *testing.T) {
	r, _, active, _, member := newResolverFixture()

	tc, err := r.Resolve(context.Background(), Principal{UserID: member, UserType: tenancy.UserTypeAgent}, active.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tc.Tenant.ID != active || tc.Membership.UserID != member {
		t.Fatalf("unexpected tenant context %+v", tc)
	}
}

func TestResolveSuperAdminSkipsMembershipLookup(t *testing.T) {
	r, memberships, active, suspended, _ := newResolverFixture()
	admin := Principal{UserID: uuid.New(), UserType: tenancy.UserTypeSuperAdmin}

	tc, err := r.Resolve(context.Background(), admin, active.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tc.Membership.IsActive() || tc.Membership.Role != nil {
		t.Fatalf("expected implicit active membership without role, got %+v", tc.Membership)
	}
	if memberships.calls != 0 {
		t.Fatalf("expected no membership lookup for super admin, got %d", memberships.calls)
	}

	if _, err := r.Resolve(context.Background(), admin, suspended.String()); apperr.GetCode(err) != apperr.CodeTenantInactive {
		t.Fatalf("expected inactive tenant to be refused even for super admin, got %v", err)
	}
}
