package transport

import (
	"time"

	"engagement_backend/internal/tenancy"
)

type CreateRoleRequest struct {
	Tenant      string                   `json:"tenant,omitempty"`
	Name        string                   `json:"name" validate:"required,notblank,max=100"`
	Description string                   `json:"description,omitempty" validate:"omitempty,max=500"`
	Level       int                      `json:"level" validate:"min=0,max=100"`
	Permissions tenancy.PermissionMatrix `json:"permissions" validate:"required"`
}

type UpdateRoleRequest struct {
	Tenant      string                   `json:"tenant,omitempty"`
	Name        *string                  `json:"name,omitempty" validate:"omitempty,notblank,max=100"`
	Description *string                  `json:"description,omitempty" validate:"omitempty,max=500"`
	Level       *int                     `json:"level,omitempty" validate:"omitempty,min=0,max=100"`
	Permissions tenancy.PermissionMatrix `json:"permissions,omitempty"`
	IsActive    *bool                    `json:"isActive,omitempty"`
}

type RoleResponse struct {
	ID           string                   `json:"id"`
	Name         string                   `json:"name"`
	Description  string                   `json:"description"`
	Level        int                      `json:"level"`
	Permissions  tenancy.PermissionMatrix `json:"permissions"`
	IsSystemRole bool                     `json:"isSystemRole"`
	IsActive     bool                     `json:"isActive"`
	CreatedAt    time.Time                `json:"createdAt"`
}

type AddMemberRequest struct {
	Tenant    string `json:"tenant,omitempty"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName  string `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Password  string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	RoleID    string `json:"roleId,omitempty" validate:"omitempty,uuid"`
	UserType  string `json:"userType,omitempty" validate:"omitempty,oneof=tenant_admin agent"`
}

type MemberResponse struct {
	UserID    string  `json:"userId"`
	TenantID  string  `json:"tenantId"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	UserType  string  `json:"userType"`
	RoleID    *string `json:"roleId,omitempty"`
	Status    string  `json:"status"`
}

type PlatformConfigRequest struct {
	AppID          string   `json:"appId,omitempty" validate:"omitempty,max=200"`
	AccessToken    string   `json:"accessToken,omitempty" validate:"omitempty,max=2000"`
	PageID         string   `json:"pageId,omitempty" validate:"omitempty,max=200"`
	WatchedPostIDs []string `json:"watchedPostIds,omitempty" validate:"omitempty,max=100,dive,notblank,max=200"`
}

type AIConfigRequest struct {
	Provider    string   `json:"provider,omitempty" validate:"omitempty,oneof=gemini fallback"`
	APIKey      string   `json:"apiKey,omitempty" validate:"omitempty,max=500"`
	Model       string   `json:"model,omitempty" validate:"omitempty,max=100"`
	Temperature *float32 `json:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
}

type UpdateSettingsRequest struct {
	Tenant                   string                 `json:"tenant,omitempty"`
	Name                     *string                `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Phone                    *string                `json:"phone,omitempty" validate:"omitempty,max=40"`
	InstagramEnabled         *bool                  `json:"instagramEnabled,omitempty"`
	FacebookEnabled          *bool                  `json:"facebookEnabled,omitempty"`
	AutoReplyEnabled         *bool                  `json:"autoReplyEnabled,omitempty"`
	SentimentAnalysisEnabled *bool                  `json:"sentimentAnalysisEnabled,omitempty"`
	LeadGenerationEnabled    *bool                  `json:"leadGenerationEnabled,omitempty"`
	InstagramConfig          *PlatformConfigRequest `json:"instagramConfig,omitempty"`
	FacebookConfig           *PlatformConfigRequest `json:"facebookConfig,omitempty"`
	AIConfig                 *AIConfigRequest       `json:"aiConfig,omitempty"`
}

type UpdateTenantStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended inactive"`
}

// PlatformConfigResponse never carries the access token.
type PlatformConfigResponse struct {
	Configured     bool       `json:"configured"`
	AppID          string     `json:"appId,omitempty"`
	PageID         string     `json:"pageId,omitempty"`
	WatchedPostIDs []string   `json:"watchedPostIds"`
	LastSyncAt     *time.Time `json:"lastSyncAt,omitempty"`
}

type AIConfigResponse struct {
	Provider    string   `json:"provider,omitempty"`
	Model       string   `json:"model,omitempty"`
	HasAPIKey   bool     `json:"hasApiKey"`
	Temperature *float32 `json:"temperature,omitempty"`
}

type TenantResponse struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	Slug            string                 `json:"slug"`
	Email           string                 `json:"email"`
	Phone           *string                `json:"phone,omitempty"`
	Plan            string                 `json:"plan"`
	Status          string                 `json:"status"`
	Settings        tenancy.Settings       `json:"settings"`
	InstagramConfig PlatformConfigResponse `json:"instagramConfig"`
	FacebookConfig  PlatformConfigResponse `json:"facebookConfig"`
	AIConfig        AIConfigResponse       `json:"aiConfig"`
	CreatedAt       time.Time              `json:"createdAt"`
}

type CountPair struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type CommentStats struct {
	Total     int64            `json:"total"`
	New       int64            `json:"new"`
	Replied   int64            `json:"replied"`
	Sentiment map[string]int64 `json:"sentiment"`
	Platform  map[string]int64 `json:"platform"`
}

type LeadStats struct {
	Total     int64 `json:"total"`
	New       int64 `json:"new"`
	Qualified int64 `json:"qualified"`
}

type TenantActivityResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Status       string `json:"status"`
	Plan         string `json:"plan"`
	CommentCount int64  `json:"commentCount"`
	LeadCount    int64  `json:"leadCount"`
}

// StatsResponse is the platform-wide rollup for super admins.
type StatsResponse struct {
	Tenants    CountPair                `json:"tenants"`
	Users      CountPair                `json:"users"`
	Comments   CommentStats             `json:"comments"`
	Leads      LeadStats                `json:"leads"`
	TopTenants []TenantActivityResponse `json:"topTenants"`
}
