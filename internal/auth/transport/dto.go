package transport

import "time"

type RegisterRequest struct {
	TenantName string `json:"tenantName" validate:"required,notblank,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	FirstName  string `json:"firstName" validate:"required,notblank,max=100"`
	LastName   string `json:"lastName" validate:"required,notblank,max=100"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Plan       string `json:"plan,omitempty" validate:"omitempty,oneof=free basic pro enterprise"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	UserType    string     `json:"userType"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

type TenantSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type MembershipResponse struct {
	TenantID string   `json:"tenantId"`
	RoleID   *string  `json:"roleId,omitempty"`
	RoleName *string  `json:"roleName,omitempty"`
	Status   string   `json:"status"`
	Granted  []string `json:"permissions"`
}

type AuthResponse struct {
	AccessToken string         `json:"accessToken"`
	TokenType   string         `json:"tokenType"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	User        UserResponse   `json:"user"`
	Tenant      *TenantSummary `json:"tenant,omitempty"`
}

type MeResponse struct {
	User        UserResponse         `json:"user"`
	Memberships []MembershipResponse `json:"memberships"`
}
