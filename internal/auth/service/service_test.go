package service

import (
	"context"
	"testing"
	"time"

	"engagement_backend/internal/auth/password"
	"engagement_backend/internal/auth/token"
	"engagement_backend/internal/auth/transport"
	"engagement_backend/internal/events"
	"engagement_backend/internal/identity/repository"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"
	"engagement_backend/platform/logger"

	"github.com/google/uuid"
)

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string         { return "test-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration { return time.Hour }

type fakeRepo struct {
	slugs       map[string]bool
	users       map[string]tenancy.User
	roles       []tenancy.Role
	memberships []tenancy.Membership
	touched     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{slugs: map[string]bool{}, users: map[string]tenancy.User{}}
}

func (f *fakeRepo) WithTx(_ context.Context, fn func(q repository.DBTX) error) error {
	snapshotRoles := len(f.roles)
	if err := fn(nil); err != nil {
		f.roles = f.roles[:snapshotRoles]
		return err
	}
	return nil
}

func (f *fakeRepo) CreateTenant(_ context.Context, _ repository.DBTX, in repository.NewTenant) (tenancy.Tenant, error) {
	if f.slugs[in.Slug] {
		return tenancy.Tenant{}, apperr.DuplicateTenant()
	}
	f.slugs[in.Slug] = true
	return tenancy.Tenant{ID: uuid.New(), Name: in.Name, Slug: in.Slug, Email: in.Email, Status: tenancy.TenantActive, Settings: in.Settings}, nil
}

func (f *fakeRepo) CreateRole(_ context.Context, _ repository.DBTX, tenantID uuid.UUID, in repository.NewRole) (tenancy.Role, error) {
	role := tenancy.Role{ID: uuid.New(), TenantID: tenantID, Name: in.Name, Level: in.Level, Permissions: in.Permissions, IsSystemRole: in.IsSystemRole, IsActive: true}
	f.roles = append(f.roles, role)
	return role, nil
}

func (f *fakeRepo) CreateUser(_ context.Context, _ repository.DBTX, in repository.NewUser) (tenancy.User, error) {
	if _, ok := f.users[in.Email]; ok {
		return tenancy.User{}, apperr.Conflict("a user with this email already exists")
	}
	u := tenancy.User{ID: uuid.New(), Email: in.Email, PasswordHash: in.PasswordHash, FirstName: in.FirstName, LastName: in.LastName, UserType: in.UserType, IsActive: true}
	f.users[in.Email] = u
	return u, nil
}

func (f *fakeRepo) UpsertMembership(_ context.Context, _ repository.DBTX, userID, tenantID uuid.UUID, roleID *uuid.UUID) error {
	m := tenancy.Membership{UserID: userID, TenantID: tenantID, RoleID: roleID, Status: tenancy.MembershipActive}
	for i := range f.roles {
		if roleID != nil && f.roles[i].ID == *roleID {
			m.Role = &f.roles[i]
		}
	}
	f.memberships = append(f.memberships, m)
	return nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (tenancy.User, error) {
	u, ok := f.users[email]
	if !ok {
		return tenancy.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, id uuid.UUID) (tenancy.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return tenancy.User{}, apperr.NotFound("user not found")
}

func (f *fakeRepo) TouchLastLogin(context.Context, uuid.UUID) error {
	f.touched++
	return nil
}

func (f *fakeRepo) ListUserMemberships(_ context.Context, userID uuid.UUID) ([]tenancy.Membership, error) {
	out := make([]tenancy.Membership, 0)
	for _, m := range f.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

type countingBus struct{ published []events.Event }

func (b *countingBus) Publish(_ context.Context, e events.Event) { b.published = append(b.published, e) }
func (b *countingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}
func (b *countingBus) Subscribe(string, events.Handler) {}

func registerRequest() transport.RegisterRequest {
	return transport.RegisterRequest{
		TenantName: "Acme Coffee Co.",
		Email:      "Owner@Acme.test",
		Password:   "correct-horse",
		FirstName:  "Sam",
		LastName:   "Owner",
	}
}

func TestRegisterSeedsRolesAndManager(t *testing.T) {
	repo := newFakeRepo()
	bus := &countingBus{}
	svc := New(repo, testConfig{}, bus, logger.Nop())

	resp, err := svc.Register(context.Background(), registerRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Tenant == nil || resp.Tenant.Slug != "acme-coffee-co" {
		t.Fatalf("unexpected tenant %+v", resp.Tenant)
	}
	if resp.User.UserType != "tenant_admin" || resp.User.Email != "owner@acme.test" {
		t.Fatalf("unexpected user %+v", resp.User)
	}
	if len(repo.roles) != 6 {
		t.Fatalf("expected 6 system roles, got %d", len(repo.roles))
	}
	if len(repo.memberships) != 1 || repo.memberships[0].Role == nil || repo.memberships[0].Role.Name != tenancy.ManagerRoleName {
		t.Fatalf("admin must hold the manager role")
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected registration event")
	}

	claims, err := token.ParseAccessToken("test-secret", resp.AccessToken)
	if err != nil || claims.UserType != "tenant_admin" {
		t.Fatalf("unexpected token claims %+v %v", claims, err)
	}
}

func TestRegisterDuplicateSlug(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, testConfig{}, &countingBus{}, logger.Nop())

	if _, err := svc.Register(context.Background(), registerRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := registerRequest()
	req.Email = "other@acme.test"
	_, err := svc.Register(context.Background(), req)
	if apperr.GetCode(err) != apperr.CodeDuplicateTenant {
		t.Fatalf("expected duplicate tenant, got %v", err)
	}
}

func TestRegisterRejectsSymbolOnlyName(t *testing.T) {
	svc := New(newFakeRepo(), testConfig{}, &countingBus{}, logger.Nop())
	req := registerRequest()
	req.TenantName = "!!!"

	if _, err := svc.Register(context.Background(), req); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeRepo()
	hash, err := password.Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo.users["agent@acme.test"] = tenancy.User{ID: uuid.New(), Email: "agent@acme.test", PasswordHash: hash, UserType: tenancy.UserTypeAgent, IsActive: true}
	repo.users["gone@acme.test"] = tenancy.User{ID: uuid.New(), Email: "gone@acme.test", PasswordHash: hash, UserType: tenancy.UserTypeAgent}
	svc := New(repo, testConfig{}, &countingBus{}, logger.Nop())
	ctx := context.Background()

	if _, err := svc.Login(ctx, transport.LoginRequest{Email: "agent@acme.test", Password: "wrong"}); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for bad password, got %v", err)
	}
	if _, err := svc.Login(ctx, transport.LoginRequest{Email: "nobody@acme.test", Password: "x"}); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
	if _, err := svc.Login(ctx, transport.LoginRequest{Email: "gone@acme.test", Password: "correct-horse"}); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for inactive user, got %v", err)
	}

	resp, err := svc.Login(ctx, transport.LoginRequest{Email: "Agent@Acme.test", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.User.LastLoginAt == nil || repo.touched != 1 {
		t.Fatalf("last login must be recorded")
	}
}

func TestMeListsMemberships(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, testConfig{}, &countingBus{}, logger.Nop())

	reg, err := svc.Register(context.Background(), registerRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	me, err := svc.Me(context.Background(), uuid.MustParse(reg.User.ID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(me.Memberships) != 1 {
		t.Fatalf("expected one membership, got %d", len(me.Memberships))
	}
	if me.Memberships[0].RoleName == nil || *me.Memberships[0].RoleName != tenancy.ManagerRoleName {
		t.Fatalf("unexpected membership %+v", me.Memberships[0])
	}
	if len(me.Memberships[0].Granted) == 0 {
		t.Fatalf("manager must have granted permissions")
	}
}
