// Package tenancy defines the tenant, user, membership and role model shared
// by the authorization engine, the identity module and the engagement pipeline.
package tenancy

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TenantStatus is the lifecycle state of a tenant.
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantSuspended TenantStatus = "suspended"
	TenantInactive  TenantStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s TenantStatus) Valid() bool {
	switch s {
	case TenantActive, TenantSuspended, TenantInactive:
		return true
	}
	return false
}

// Plan is a tenant subscription tier.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanBasic      Plan = "basic"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Platform identifies a social network.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformOther     Platform = "other"
)

// ParsePlatform normalizes s; unknown values become PlatformOther.
func ParsePlatform(s string) Platform {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformInstagram:
		return PlatformInstagram
	case PlatformFacebook:
		return PlatformFacebook
	}
	return PlatformOther
}

// Settings are per-tenant feature toggles.
type Settings struct {
	InstagramEnabled         bool `json:"instagramEnabled"`
	FacebookEnabled          bool `json:"facebookEnabled"`
	AutoReplyEnabled         bool `json:"autoReplyEnabled"`
	SentimentAnalysisEnabled bool `json:"sentimentAnalysisEnabled"`
	LeadGenerationEnabled    bool `json:"leadGenerationEnabled"`
}

// DefaultSettings are applied to newly registered tenants.
func DefaultSettings() Settings {
	return Settings{
		AutoReplyEnabled:         true,
		SentimentAnalysisEnabled: true,
		LeadGenerationEnabled:    true,
	}
}

// PlatformConfig holds credentials and sync state for one platform.
type PlatformConfig struct {
	AppID          string     `json:"appId,omitempty"`
	AccessToken    string     `json:"accessToken,omitempty"`
	PageID         string     `json:"pageId,omitempty"`
	WatchedPostIDs []string   `json:"watchedPostIds,omitempty"`
	LastSyncAt     *time.Time `json:"lastSyncAt,omitempty"`
}

// Configured reports whether the platform can be called.
func (c PlatformConfig) Configured() bool {
	return strings.TrimSpace(c.AccessToken) != ""
}

// AIProvider selects the reply generator.
type AIProvider string

const (
	AIProviderGemini   AIProvider = "gemini"
	AIProviderFallback AIProvider = "fallback"
)

// AIConfig configures reply generation for a tenant.
type AIConfig struct {
	Provider    AIProvider `json:"provider,omitempty"`
	APIKey      string     `json:"apiKey,omitempty"`
	Model       string     `json:"model,omitempty"`
	Temperature *float32   `json:"temperature,omitempty"`
}

// Tenant is an isolated customer account.
type Tenant struct {
	ID              uuid.UUID
	Name            string
	Slug            string
	Email           string
	Phone           *string
	Plan            Plan
	Status          TenantStatus
	Settings        Settings
	InstagramConfig PlatformConfig
	FacebookConfig  PlatformConfig
	AIConfig        AIConfig
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive reports whether the tenant may be used.
func (t Tenant) IsActive() bool {
	return t.Status == TenantActive
}

// PlatformEnabled reports whether p is switched on and has credentials.
func (t Tenant) PlatformEnabled(p Platform) bool {
	switch p {
	case PlatformInstagram:
		return t.Settings.InstagramEnabled && t.InstagramConfig.Configured()
	case PlatformFacebook:
		return t.Settings.FacebookEnabled && t.FacebookConfig.Configured()
	}
	return false
}

// PlatformConfigFor returns the config for p.
func (t Tenant) PlatformConfigFor(p Platform) (PlatformConfig, bool) {
	switch p {
	case PlatformInstagram:
		return t.InstagramConfig, true
	case PlatformFacebook:
		return t.FacebookConfig, true
	}
	return PlatformConfig{}, false
}

// AnyPlatformEnabled reports whether at least one platform is usable.
func (t Tenant) AnyPlatformEnabled() bool {
	return t.PlatformEnabled(PlatformInstagram) || t.PlatformEnabled(PlatformFacebook)
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and joins alphanumeric runs with dashes.
func Slugify(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// UserType is a global account capability.
type UserType string

const (
	UserTypeSuperAdmin  UserType = "super_admin"
	UserTypeTenantAdmin UserType = "tenant_admin"
	UserTypeAgent       UserType = "agent"
)

// ParseUserType maps s to a UserType, defaulting to agent.
func ParseUserType(s string) UserType {
	switch UserType(s) {
	case UserTypeSuperAdmin:
		return UserTypeSuperAdmin
	case UserTypeTenantAdmin:
		return UserTypeTenantAdmin
	}
	return UserTypeAgent
}

// User is a person who can sign in.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	UserType     UserType
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MembershipStatus is the state of a user's link to a tenant.
type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "pending"
	MembershipActive   MembershipStatus = "active"
	MembershipInactive MembershipStatus = "inactive"
)

// Membership links a user to a tenant. Role is loaded with it when RoleID is set.
type Membership struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	RoleID   *uuid.UUID
	Role     *Role
	Status   MembershipStatus
	JoinedAt time.Time
}

// IsActive reports whether the membership grants access.
func (m Membership) IsActive() bool {
	return m.Status == MembershipActive
}

// Role is a tenant-owned permission set.
type Role struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	Description  string
	Level        int
	Permissions  PermissionMatrix
	IsSystemRole bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
