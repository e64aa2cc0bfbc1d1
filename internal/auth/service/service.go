// Package service implements sign-up, sign-in and the current-user lookup.
package service

import (
	"context"
	"strings"
	"time"

	"engagement_backend/internal/auth/password"
	"engagement_backend/internal/auth/token"
	"engagement_backend/internal/auth/transport"
	"engagement_backend/internal/events"
	"engagement_backend/internal/identity/repository"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"
	"engagement_backend/platform/config"
	"engagement_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	tokenTypeBearer = "Bearer"
	msgInvalidCreds = "invalid credentials"
)

// Repository is the identity storage used by auth.
type Repository interface {
	WithTx(ctx context.Context, fn func(q repository.DBTX) error) error
	CreateTenant(ctx context.Context, q repository.DBTX, in repository.NewTenant) (tenancy.Tenant, error)
	CreateRole(ctx context.Context, q repository.DBTX, tenantID uuid.UUID, in repository.NewRole) (tenancy.Role, error)
	CreateUser(ctx context.Context, q repository.DBTX, in repository.NewUser) (tenancy.User, error)
	UpsertMembership(ctx context.Context, q repository.DBTX, userID, tenantID uuid.UUID, roleID *uuid.UUID) error
	GetUserByEmail(ctx context.Context, email string) (tenancy.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (tenancy.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]tenancy.Membership, error)
}

type Service struct {
	repo     Repository
	cfg      config.AuthServiceConfig
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

func New(repo Repository, cfg config.AuthServiceConfig, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, eventBus: eventBus, log: log, now: time.Now}
}

// Register creates a tenant, seeds its system roles and creates the tenant
// admin with the Manager role, all in one transaction.
func (s *Service) Register(ctx context.Context, req transport.RegisterRequest) (transport.AuthResponse, error) {
	name := strings.TrimSpace(req.TenantName)
	slug := tenancy.Slugify(name)
	if slug == "" {
		return transport.AuthResponse{}, apperr.Validation("tenant name must contain letters or digits")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	templates, err := tenancy.SystemRoles()
	if err != nil {
		return transport.AuthResponse{}, err
	}
	hash, err := password.Hash(req.Password)
	if err != nil {
		return transport.AuthResponse{}, err
	}

	var phone *string
	if p := strings.TrimSpace(req.Phone); p != "" {
		phone = &p
	}

	var tenant tenancy.Tenant
	var user tenancy.User
	err = s.repo.WithTx(ctx, func(q repository.DBTX) error {
		tenant, err = s.repo.CreateTenant(ctx, q, repository.NewTenant{
			Name:     name,
			Slug:     slug,
			Email:    email,
			Phone:    phone,
			Plan:     tenancy.Plan(req.Plan),
			Settings: tenancy.DefaultSettings(),
		})
		if err != nil {
			return err
		}

		var managerID *uuid.UUID
		for _, tpl := range templates {
			role, err := s.repo.CreateRole(ctx, q, tenant.ID, repository.NewRole{
				Name:         tpl.Name,
				Description:  tpl.Description,
				Level:        tpl.Level,
				Permissions:  tpl.Permissions,
				IsSystemRole: true,
			})
			if err != nil {
				return err
			}
			if role.Name == tenancy.ManagerRoleName {
				id := role.ID
				managerID = &id
			}
		}

		user, err = s.repo.CreateUser(ctx, q, repository.NewUser{
			Email:        email,
			PasswordHash: hash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Phone:        phone,
			UserType:     tenancy.UserTypeTenantAdmin,
		})
		if err != nil {
			return err
		}
		return s.repo.UpsertMembership(ctx, q, user.ID, tenant.ID, managerID)
	})
	if err != nil {
		s.log.WithContext(ctx).AuthEvent("register", email, false, err.Error())
		return transport.AuthResponse{}, err
	}

	s.eventBus.Publish(ctx, events.TenantRegistered{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenant.ID,
		UserID:    user.ID,
		Slug:      tenant.Slug,
		Email:     tenant.Email,
	})
	s.log.WithContext(ctx).AuthEvent("register", email, true, "")

	resp, err := s.issue(user)
	if err != nil {
		return transport.AuthResponse{}, err
	}
	resp.Tenant = &transport.TenantSummary{ID: tenant.ID.String(), Name: tenant.Name, Slug: tenant.Slug}
	return resp, nil
}

// Login checks the password and issues an access token.
func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (transport.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.WithContext(ctx).AuthEvent("login", email, false, "unknown email")
			return transport.AuthResponse{}, apperr.Unauthorized(msgInvalidCreds)
		}
		return transport.AuthResponse{}, err
	}

	if err := password.Compare(user.PasswordHash, req.Password); err != nil {
		s.log.WithContext(ctx).AuthEvent("login", email, false, "password mismatch")
		return transport.AuthResponse{}, apperr.Unauthorized(msgInvalidCreds)
	}
	if !user.IsActive {
		s.log.WithContext(ctx).AuthEvent("login", email, false, "inactive account")
		return transport.AuthResponse{}, apperr.Forbidden("account is deactivated")
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		s.log.WithContext(ctx).DatabaseError("touch_last_login", err)
	}
	now := s.now()
	user.LastLoginAt = &now

	s.log.WithContext(ctx).AuthEvent("login", email, true, "")
	return s.issue(user)
}

// Me returns the user and every tenant membership with its granted permissions.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (transport.MeResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return transport.MeResponse{}, err
	}
	memberships, err := s.repo.ListUserMemberships(ctx, userID)
	if err != nil {
		return transport.MeResponse{}, err
	}

	out := transport.MeResponse{User: toUserResponse(user), Memberships: make([]transport.MembershipResponse, 0, len(memberships))}
	for _, m := range memberships {
		item := transport.MembershipResponse{
			TenantID: m.TenantID.String(),
			Status:   string(m.Status),
			Granted:  []string{},
		}
		if m.Role != nil {
			id := m.Role.ID.String()
			name := m.Role.Name
			item.RoleID = &id
			item.RoleName = &name
			if m.Role.IsActive {
				item.Granted = m.Role.Permissions.Granted()
			}
		}
		out.Memberships = append(out.Memberships, item)
	}
	return out, nil
}

func (s *Service) issue(user tenancy.User) (transport.AuthResponse, error) {
	raw, expiresAt, err := token.NewAccessToken(s.cfg.GetJWTAccessSecret(), user.ID, string(user.UserType), s.cfg.GetAccessTokenTTL(), s.now())
	if err != nil {
		return transport.AuthResponse{}, err
	}
	return transport.AuthResponse{
		AccessToken: raw,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   expiresAt,
		User:        toUserResponse(user),
	}, nil
}

func toUserResponse(u tenancy.User) transport.UserResponse {
	return transport.UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		UserType:    string(u.UserType),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
	}
}
