// Package service implements tenant administration: roles, members, tenant
// settings and the super admin status switch.
package service

import (
	"context"
	"strings"

	"engagement_backend/internal/auth/password"
	"engagement_backend/internal/events"
	"engagement_backend/internal/identity/repository"
	"engagement_backend/internal/identity/transport"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	roleActionCreated     = "created"
	roleActionUpdated     = "updated"
	roleActionDeactivated = "deactivated"
)

// Repository is the storage the service needs.
type Repository interface {
	WithTx(ctx context.Context, fn func(q repository.DBTX) error) error

	GetTenant(ctx context.Context, id uuid.UUID) (tenancy.Tenant, error)
	UpdateTenantStatus(ctx context.Context, id uuid.UUID, status tenancy.TenantStatus) (tenancy.Tenant, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, u repository.SettingsUpdate) (tenancy.Tenant, error)
	DeleteTenant(ctx context.Context, id uuid.UUID) error
	PlatformStats(ctx context.Context) (repository.PlatformStats, error)

	CreateUser(ctx context.Context, q repository.DBTX, in repository.NewUser) (tenancy.User, error)
	GetUserByEmail(ctx context.Context, email string) (tenancy.User, error)

	GetMembership(ctx context.Context, userID, tenantID uuid.UUID) (tenancy.Membership, error)
	UpsertMembership(ctx context.Context, q repository.DBTX, userID, tenantID uuid.UUID, roleID *uuid.UUID) error

	CreateRole(ctx context.Context, q repository.DBTX, tenantID uuid.UUID, in repository.NewRole) (tenancy.Role, error)
	GetRole(ctx context.Context, tenantID, id uuid.UUID) (tenancy.Role, error)
	ListRoles(ctx context.Context, tenantID uuid.UUID) ([]tenancy.Role, error)
	UpdateRole(ctx context.Context, tenantID, id uuid.UUID, u repository.RoleUpdate) (tenancy.Role, error)
}

type Service struct {
	repo     Repository
	eventBus events.Bus
}

func New(repo Repository, eventBus events.Bus) *Service {
	return &Service{repo: repo, eventBus: eventBus}
}

// =============================================================================
// Roles
// =============================================================================

func (s *Service) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]transport.RoleResponse, error) {
	roles, err := s.repo.ListRoles(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.RoleResponse, len(roles))
	for i, role := range roles {
		out[i] = RoleToResponse(role)
	}
	return out, nil
}

func (s *Service) CreateRole(ctx context.Context, tenantID, actorID uuid.UUID, req transport.CreateRoleRequest) (transport.RoleResponse, error) {
	if err := req.Permissions.Validate(); err != nil {
		return transport.RoleResponse{}, apperr.Validation(err.Error())
	}

	role, err := s.repo.CreateRole(ctx, nil, tenantID, repository.NewRole{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Level:       req.Level,
		Permissions: req.Permissions,
	})
	if err != nil {
		return transport.RoleResponse{}, err
	}

	s.publishRoleChanged(ctx, role, actorID, roleActionCreated)
	return RoleToResponse(role), nil
}

// UpdateRole changes a role. System roles only accept permission changes,
// which are merged into the existing matrix, and the active flag.
func (s *Service) UpdateRole(ctx context.Context, tenantID, actorID, roleID uuid.UUID, req transport.UpdateRoleRequest) (transport.RoleResponse, error) {
	if req.Permissions != nil {
		if err := req.Permissions.Validate(); err != nil {
			return transport.RoleResponse{}, apperr.Validation(err.Error())
		}
	}

	existing, err := s.repo.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return transport.RoleResponse{}, err
	}

	update := repository.RoleUpdate{IsActive: req.IsActive}
	if existing.IsSystemRole {
		if req.Name != nil || req.Description != nil || req.Level != nil {
			return transport.RoleResponse{}, apperr.Forbidden("system roles only allow permission and status changes")
		}
		if req.Permissions != nil {
			update.Permissions = existing.Permissions.Merge(req.Permissions)
		}
	} else {
		update.Name = trimmed(req.Name)
		update.Description = trimmed(req.Description)
		update.Level = req.Level
		update.Permissions = req.Permissions
	}

	role, err := s.repo.UpdateRole(ctx, tenantID, roleID, update)
	if err != nil {
		return transport.RoleResponse{}, err
	}

	s.publishRoleChanged(ctx, role, actorID, roleActionUpdated)
	return RoleToResponse(role), nil
}

// DeleteRole deactivates a custom role. System roles cannot be deleted.
func (s *Service) DeleteRole(ctx context.Context, tenantID, actorID, roleID uuid.UUID) error {
	existing, err := s.repo.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return err
	}
	if existing.IsSystemRole {
		return apperr.Forbidden("system roles cannot be deleted")
	}

	inactive := false
	role, err := s.repo.UpdateRole(ctx, tenantID, roleID, repository.RoleUpdate{IsActive: &inactive})
	if err != nil {
		return err
	}

	s.publishRoleChanged(ctx, role, actorID, roleActionDeactivated)
	return nil
}

func (s *Service) publishRoleChanged(ctx context.Context, role tenancy.Role, actorID uuid.UUID, action string) {
	s.eventBus.Publish(ctx, events.RoleChanged{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  role.TenantID,
		RoleID:    role.ID,
		ActorID:   actorID,
		Action:    action,
		Name:      role.Name,
	})
}

// =============================================================================
// Members
// =============================================================================

// AddMember adds a user to tenantID, creating the user when the email is new
// and reactivating an existing membership otherwise.
func (s *Service) AddMember(ctx context.Context, tenantID, actorID uuid.UUID, req transport.AddMemberRequest) (transport.MemberResponse, error) {
	var roleID *uuid.UUID
	if req.RoleID != "" {
		id, err := uuid.Parse(req.RoleID)
		if err != nil {
			return transport.MemberResponse{}, apperr.Validation("invalid role id")
		}
		role, err := s.repo.GetRole(ctx, tenantID, id)
		if err != nil {
			return transport.MemberResponse{}, err
		}
		if !role.IsActive {
			return transport.MemberResponse{}, apperr.Validation("role is not active")
		}
		roleID = &id
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	userExists := err == nil
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return transport.MemberResponse{}, err
	}

	if !userExists {
		if req.Password == "" {
			return transport.MemberResponse{}, apperr.Validation("password is required for new users")
		}
		if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
			return transport.MemberResponse{}, apperr.Validation("first and last name are required for new users")
		}
	}

	var hash string
	if !userExists {
		if hash, err = password.Hash(req.Password); err != nil {
			return transport.MemberResponse{}, err
		}
	}

	err = s.repo.WithTx(ctx, func(q repository.DBTX) error {
		if !userExists {
			userType := tenancy.UserTypeAgent
			if req.UserType == string(tenancy.UserTypeTenantAdmin) {
				userType = tenancy.UserTypeTenantAdmin
			}
			created, err := s.repo.CreateUser(ctx, q, repository.NewUser{
				Email:        email,
				PasswordHash: hash,
				FirstName:    strings.TrimSpace(req.FirstName),
				LastName:     strings.TrimSpace(req.LastName),
				UserType:     userType,
			})
			if err != nil {
				return err
			}
			user = created
		}
		return s.repo.UpsertMembership(ctx, q, user.ID, tenantID, roleID)
	})
	if err != nil {
		return transport.MemberResponse{}, err
	}

	s.eventBus.Publish(ctx, events.MemberAdded{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenantID,
		UserID:    user.ID,
		RoleID:    roleID,
		ActorID:   actorID,
	})

	resp := transport.MemberResponse{
		UserID:    user.ID.String(),
		TenantID:  tenantID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		UserType:  string(user.UserType),
		Status:    string(tenancy.MembershipActive),
	}
	if roleID != nil {
		v := roleID.String()
		resp.RoleID = &v
	}
	return resp, nil
}

// =============================================================================
// Tenant settings
// =============================================================================

func (s *Service) GetTenant(ctx context.Context, tenantID uuid.UUID) (transport.TenantResponse, error) {
	t, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return transport.TenantResponse{}, err
	}
	return TenantToResponse(t), nil
}

// UpdateSettings changes feature toggles and platform/AI configuration.
// Omitted platform fields keep their stored value.
func (s *Service) UpdateSettings(ctx context.Context, tenantID uuid.UUID, req transport.UpdateSettingsRequest) (transport.TenantResponse, error) {
	current, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return transport.TenantResponse{}, err
	}

	update := repository.SettingsUpdate{
		Name:                     trimmed(req.Name),
		Phone:                    trimmed(req.Phone),
		InstagramEnabled:         req.InstagramEnabled,
		FacebookEnabled:          req.FacebookEnabled,
		AutoReplyEnabled:         req.AutoReplyEnabled,
		SentimentAnalysisEnabled: req.SentimentAnalysisEnabled,
		LeadGenerationEnabled:    req.LeadGenerationEnabled,
	}
	if req.InstagramConfig != nil {
		cfg := mergePlatformConfig(current.InstagramConfig, *req.InstagramConfig)
		update.InstagramConfig = &cfg
	}
	if req.FacebookConfig != nil {
		cfg := mergePlatformConfig(current.FacebookConfig, *req.FacebookConfig)
		update.FacebookConfig = &cfg
	}
	if req.AIConfig != nil {
		cfg := mergeAIConfig(current.AIConfig, *req.AIConfig)
		update.AIConfig = &cfg
	}

	t, err := s.repo.UpdateSettings(ctx, tenantID, update)
	if err != nil {
		return transport.TenantResponse{}, err
	}
	return TenantToResponse(t), nil
}

func mergePlatformConfig(cur tenancy.PlatformConfig, req transport.PlatformConfigRequest) tenancy.PlatformConfig {
	if req.AppID != "" {
		cur.AppID = req.AppID
	}
	if req.AccessToken != "" {
		cur.AccessToken = req.AccessToken
	}
	if req.PageID != "" {
		cur.PageID = req.PageID
	}
	if req.WatchedPostIDs != nil {
		cur.WatchedPostIDs = req.WatchedPostIDs
	}
	return cur
}

func mergeAIConfig(cur tenancy.AIConfig, req transport.AIConfigRequest) tenancy.AIConfig {
	if req.Provider != "" {
		cur.Provider = tenancy.AIProvider(req.Provider)
	}
	if req.APIKey != "" {
		cur.APIKey = req.APIKey
	}
	if req.Model != "" {
		cur.Model = req.Model
	}
	if req.Temperature != nil {
		cur.Temperature = req.Temperature
	}
	return cur
}

// SetTenantStatus is the super admin switch for suspending or reactivating a tenant.
func (s *Service) SetTenantStatus(ctx context.Context, tenantID, actorID uuid.UUID, status tenancy.TenantStatus) (transport.TenantResponse, error) {
	if !status.Valid() {
		return transport.TenantResponse{}, apperr.Validation("invalid tenant status")
	}
	t, err := s.repo.UpdateTenantStatus(ctx, tenantID, status)
	if err != nil {
		return transport.TenantResponse{}, err
	}

	s.eventBus.Publish(ctx, events.TenantStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenantID,
		ActorID:   actorID,
		Status:    string(status),
	})
	return TenantToResponse(t), nil
}

// DeleteTenant removes a tenant and everything it owns.
func (s *Service) DeleteTenant(ctx context.Context, tenantID uuid.UUID) error {
	return s.repo.DeleteTenant(ctx, tenantID)
}

// Stats returns the platform-wide counters.
func (s *Service) Stats(ctx context.Context) (transport.StatsResponse, error) {
	st, err := s.repo.PlatformStats(ctx)
	if err != nil {
		return transport.StatsResponse{}, err
	}

	top := make([]transport.TenantActivityResponse, 0, len(st.TopTenants))
	for _, t := range st.TopTenants {
		top = append(top, transport.TenantActivityResponse{
			ID:           t.ID.String(),
			Name:         t.Name,
			Slug:         t.Slug,
			Status:       t.Status,
			Plan:         t.Plan,
			CommentCount: t.CommentCount,
			LeadCount:    t.LeadCount,
		})
	}
	return transport.StatsResponse{
		Tenants: transport.CountPair{Total: st.Tenants, Active: st.ActiveTenants},
		Users:   transport.CountPair{Total: st.Users, Active: st.ActiveUsers},
		Comments: transport.CommentStats{
			Total:     st.Comments,
			New:       st.NewComments,
			Replied:   st.RepliedComments,
			Sentiment: nonNilCounts(st.Sentiment),
			Platform:  nonNilCounts(st.Platform),
		},
		Leads:      transport.LeadStats{Total: st.Leads, New: st.NewLeads, Qualified: st.QualifiedLeads},
		TopTenants: top,
	}, nil
}

func nonNilCounts(m map[string]int64) map[string]int64 {
	if m == nil {
		return map[string]int64{}
	}
	return m
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}

func RoleToResponse(role tenancy.Role) transport.RoleResponse {
	perms := role.Permissions
	if perms == nil {
		perms = tenancy.PermissionMatrix{}
	}
	return transport.RoleResponse{
		ID:           role.ID.String(),
		Name:         role.Name,
		Description:  role.Description,
		Level:        role.Level,
		Permissions:  perms,
		IsSystemRole: role.IsSystemRole,
		IsActive:     role.IsActive,
		CreatedAt:    role.CreatedAt,
	}
}

func TenantToResponse(t tenancy.Tenant) transport.TenantResponse {
	return transport.TenantResponse{
		ID:              t.ID.String(),
		Name:            t.Name,
		Slug:            t.Slug,
		Email:           t.Email,
		Phone:           t.Phone,
		Plan:            string(t.Plan),
		Status:          string(t.Status),
		Settings:        t.Settings,
		InstagramConfig: platformConfigResponse(t.InstagramConfig),
		FacebookConfig:  platformConfigResponse(t.FacebookConfig),
		AIConfig: transport.AIConfigResponse{
			Provider:    string(t.AIConfig.Provider),
			Model:       t.AIConfig.Model,
			HasAPIKey:   t.AIConfig.APIKey != "",
			Temperature: t.AIConfig.Temperature,
		},
		CreatedAt: t.CreatedAt,
	}
}

func platformConfigResponse(cfg tenancy.PlatformConfig) transport.PlatformConfigResponse {
	watched := cfg.WatchedPostIDs
	if watched == nil {
		watched = []string{}
	}
	return transport.PlatformConfigResponse{
		Configured:     cfg.Configured(),
		AppID:          cfg.AppID,
		PageID:         cfg.PageID,
		WatchedPostIDs: watched,
		LastSyncAt:     cfg.LastSyncAt,
	}
}
