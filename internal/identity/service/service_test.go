package service

import (
	"context"
	"sync"
	"testing"

	"engagement_backend/internal/events"
	"engagement_backend/internal/identity/repository"
	"engagement_backend/internal/identity/transport"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeRepo struct {
	tenant      tenancy.Tenant
	roles       map[uuid.UUID]tenancy.Role
	users       map[string]tenancy.User
	memberships map[[2]uuid.UUID]*uuid.UUID
	lastUpdate  repository.RoleUpdate
	settings    repository.SettingsUpdate
	deleted     []uuid.UUID
	stats       repository.PlatformStats
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tenant:      tenancy.Tenant{ID: uuid.New(), Status: tenancy.TenantActive},
		roles:       map[uuid.UUID]tenancy.Role{},
		users:       map[string]tenancy.User{},
		memberships: map[[2]uuid.UUID]*uuid.UUID{},
	}
}

func (f *fakeRepo) WithTx(_ context.Context, fn func(q repository.DBTX) error) error {
	return fn(nil)
}

func (f *fakeRepo) GetTenant(context.Context, uuid.UUID) (tenancy.Tenant, error) { return f.tenant, nil }

func (f *fakeRepo) UpdateTenantStatus(_ context.Context, _ uuid.UUID, status tenancy.TenantStatus) (tenancy.Tenant, error) {
	f.tenant.Status = status
	return f.tenant, nil
}

func (f *fakeRepo) UpdateSettings(_ context.Context, _ uuid.UUID, u repository.SettingsUpdate) (tenancy.Tenant, error) {
	f.settings = u
	if u.InstagramConfig != nil {
		f.tenant.InstagramConfig = *u.InstagramConfig
	}
	return f.tenant, nil
}

func (f *fakeRepo) DeleteTenant(_ context.Context, id uuid.UUID) error {
	if id != f.tenant.ID {
		return apperr.TenantNotFound()
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepo) PlatformStats(context.Context) (repository.PlatformStats, error) {
	return f.stats, nil
}

func (f *fakeRepo) CreateUser(_ context.Context, _ repository.DBTX, in repository.NewUser) (tenancy.User, error) {
	u := tenancy.User{ID: uuid.New(), Email: in.Email, PasswordHash: in.PasswordHash, FirstName: in.FirstName, LastName: in.LastName, UserType: in.UserType, IsActive: true}
	f.users[in.Email] = u
	return u, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (tenancy.User, error) {
	u, ok := f.users[email]
	if !ok {
		return tenancy.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func (f *fakeRepo) GetMembership(context.Context, uuid.UUID, uuid.UUID) (tenancy.Membership, error) {
	return tenancy.Membership{}, apperr.NotAMember()
}

func (f *fakeRepo) UpsertMembership(_ context.Context, _ repository.DBTX, userID, tenantID uuid.UUID, roleID *uuid.UUID) error {
	f.memberships[[2]uuid.UUID{userID, tenantID}] = roleID
	return nil
}

func (f *fakeRepo) CreateRole(_ context.Context, _ repository.DBTX, tenantID uuid.UUID, in repository.NewRole) (tenancy.Role, error) {
	for _, r := range f.roles {
		if r.TenantID == tenantID && r.Name == in.Name {
			return tenancy.Role{}, apperr.Conflict("a role with this name already exists")
		}
	}
	role := tenancy.Role{ID: uuid.New(), TenantID: tenantID, Name: in.Name, Level: in.Level, Permissions: in.Permissions, IsActive: true, IsSystemRole: in.IsSystemRole}
	f.roles[role.ID] = role
	return role, nil
}

func (f *fakeRepo) GetRole(_ context.Context, tenantID, id uuid.UUID) (tenancy.Role, error) {
	r, ok := f.roles[id]
	if !ok || r.TenantID != tenantID {
		return tenancy.Role{}, apperr.NotFound("role not found")
	}
	return r, nil
}

func (f *fakeRepo) ListRoles(context.Context, uuid.UUID) ([]tenancy.Role, error) {
	out := make([]tenancy.Role, 0, len(f.roles))
	for _, r := range f.roles {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRepo) UpdateRole(_ context.Context, _ uuid.UUID, id uuid.UUID, u repository.RoleUpdate) (tenancy.Role, error) {
	f.lastUpdate = u
	r := f.roles[id]
	if u.Permissions != nil {
		r.Permissions = u.Permissions
	}
	if u.IsActive != nil {
		r.IsActive = *u.IsActive
	}
	if u.Name != nil {
		r.Name = *u.Name
	}
	f.roles[id] = r
	return r, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func seedSystemRole(repo *fakeRepo) tenancy.Role {
	role := tenancy.Role{
		ID:           uuid.New(),
		TenantID:     repo.tenant.ID,
		Name:         "Agent",
		Level:        4,
		IsSystemRole: true,
		IsActive:     true,
		Permissions: tenancy.PermissionMatrix{
			tenancy.ResourceComments: {tenancy.ActionView: true, tenancy.ActionReply: true},
		},
	}
	repo.roles[role.ID] = role
	return role
}

func TestSystemRoleMergesPermissionsOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, &recordingBus{})
	role := seedSystemRole(repo)

	name := "Renamed"
	_, err := svc.UpdateRole(context.Background(), repo.tenant.ID, uuid.New(), role.ID, transport.UpdateRoleRequest{Name: &name})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden rename, got %v", err)
	}

	resp, err := svc.UpdateRole(context.Background(), repo.tenant.ID, uuid.New(), role.ID, transport.UpdateRoleRequest{
		Permissions: tenancy.PermissionMatrix{tenancy.ResourceLeads: {tenancy.ActionView: true}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Permissions.Allows(tenancy.ResourceComments, tenancy.ActionReply) {
		t.Fatalf("existing grants must survive the merge")
	}
	if !resp.Permissions.Allows(tenancy.ResourceLeads, tenancy.ActionView) {
		t.Fatalf("patched grant must be applied")
	}
}

func TestSystemRoleCannotBeDeleted(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, &recordingBus{})
	role := seedSystemRole(repo)

	if err := svc.DeleteRole(context.Background(), repo.tenant.ID, uuid.New(), role.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCustomRoleSoftDelete(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := New(repo, bus)

	created, err := svc.CreateRole(context.Background(), repo.tenant.ID, uuid.New(), transport.CreateRoleRequest{
		Name:        "Night shift",
		Level:       3,
		Permissions: tenancy.PermissionMatrix{tenancy.ResourceComments: {tenancy.ActionView: true}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := uuid.MustParse(created.ID)

	if err := svc.DeleteRole(context.Background(), repo.tenant.ID, uuid.New(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.roles[id].IsActive {
		t.Fatalf("role must be deactivated")
	}
	if len(bus.events) != 2 {
		t.Fatalf("expected created and deactivated events, got %d", len(bus.events))
	}
}

func TestCreateRoleRejectsUnknownPermission(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, &recordingBus{})

	_, err := svc.CreateRole(context.Background(), repo.tenant.ID, uuid.New(), transport.CreateRoleRequest{
		Name:        "Bad",
		Permissions: tenancy.PermissionMatrix{"billing": {"view": true}},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddMemberCreatesOrReactivates(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, &recordingBus{})
	role := seedSystemRole(repo)

	_, err := svc.AddMember(context.Background(), repo.tenant.ID, uuid.New(), transport.AddMemberRequest{Email: "new@example.com"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected password requirement, got %v", err)
	}

	resp, err := svc.AddMember(context.Background(), repo.tenant.ID, uuid.New(), transport.AddMemberRequest{
		Email:     "New@Example.com",
		FirstName: "Ana",
		LastName:  "Lee",
		Password:  "longenough",
		RoleID:    role.ID.String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Email != "new@example.com" || resp.UserType != "agent" || resp.RoleID == nil {
		t.Fatalf("unexpected response %+v", resp)
	}
	if repo.users["new@example.com"].PasswordHash == "longenough" {
		t.Fatalf("password must be hashed")
	}

	again, err := svc.AddMember(context.Background(), repo.tenant.ID, uuid.New(), transport.AddMemberRequest{Email: "new@example.com"})
	if err != nil {
		t.Fatalf("existing users need no password: %v", err)
	}
	if again.UserID != resp.UserID || len(repo.users) != 1 {
		t.Fatalf("existing user must be reused")
	}
}

func TestAddMemberRejectsForeignRole(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, &recordingBus{})
	foreign := tenancy.Role{ID: uuid.New(), TenantID: uuid.New(), IsActive: true}
	repo.roles[foreign.ID] = foreign

	_, err := svc.AddMember(context.Background(), repo.tenant.ID, uuid.New(), transport.AddMemberRequest{
		Email: "x@example.com", FirstName: "X", LastName: "Y", Password: "longenough", RoleID: foreign.ID.String(),
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected role from another tenant to be not found, got %v", err)
	}
}

func TestUpdateSettingsKeepsStoredToken(t *testing.T) {
	repo := newFakeRepo()
	repo.tenant.InstagramConfig = tenancy.PlatformConfig{AccessToken: "secret", PageID: "p1"}
	svc := New(repo, &recordingBus{})

	resp, err := svc.UpdateSettings(context.Background(), repo.tenant.ID, transport.UpdateSettingsRequest{
		InstagramConfig: &transport.PlatformConfigRequest{WatchedPostIDs: []string{"post-1"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.settings.InstagramConfig.AccessToken != "secret" {
		t.Fatalf("token must be kept when omitted")
	}
	if !resp.InstagramConfig.Configured || len(resp.InstagramConfig.WatchedPostIDs) != 1 {
		t.Fatalf("unexpected response %+v", resp.InstagramConfig)
	}
}

func TestSetTenantStatusValidates(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, &recordingBus{})

	if _, err := svc.SetTenantStatus(context.Background(), repo.tenant.ID, uuid.New(), "frozen"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	resp, err := svc.SetTenantStatus(context.Background(), repo.tenant.ID, uuid.New(), tenancy.TenantSuspended)
	if err != nil || resp.Status != "suspended" {
		t.Fatalf("expected suspended, got %+v %v", resp, err)
	}
}

func TestDeleteTenant(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, &recordingBus{})

	err := svc.DeleteTenant(context.Background(), uuid.New())
	if apperr.GetCode(err) != apperr.CodeTenantNotFound {
		t.Fatalf("expected tenant not found, got %v", err)
	}
	if err := svc.DeleteTenant(context.Background(), repo.tenant.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != repo.tenant.ID {
		t.Fatalf("expected tenant deleted, got %v", repo.deleted)
	}
}

func TestStatsMapsBreakdowns(t *testing.T) {
	repo := newFakeRepo()
	repo.stats = repository.PlatformStats{
		Tenants:         3,
		ActiveTenants:   2,
		Users:           5,
		ActiveUsers:     4,
		Comments:        10,
		NewComments:     6,
		RepliedComments: 3,
		Leads:           2,
		QualifiedLeads:  1,
		Sentiment:       map[string]int64{"positive": 7, "negative": 3},
		TopTenants: []repository.TenantActivity{
			{ID: repo.tenant.ID, Name: "Acme", Slug: "acme", Status: "active", Plan: "pro", CommentCount: 10, LeadCount: 2},
		},
	}
	svc := New(repo, &recordingBus{})

	resp, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if resp.Tenants.Total != 3 || resp.Tenants.Active != 2 || resp.Users.Active != 4 {
		t.Fatalf("unexpected totals %+v %+v", resp.Tenants, resp.Users)
	}
	if resp.Comments.Replied != 3 || resp.Comments.Sentiment["positive"] != 7 {
		t.Fatalf("unexpected comment stats %+v", resp.Comments)
	}
	if resp.Comments.Platform == nil {
		t.Fatalf("platform breakdown must be an empty map, not nil")
	}
	if resp.Leads.Qualified != 1 {
		t.Fatalf("unexpected lead stats %+v", resp.Leads)
	}
	if len(resp.TopTenants) != 1 || resp.TopTenants[0].Slug != "acme" || resp.TopTenants[0].CommentCount != 10 {
		t.Fatalf("unexpected top tenants %+v", resp.TopTenants)
	}
}
