// Package repository stores tenants, users, memberships and roles.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"
	"engagement_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	userNotFoundMsg = "user not found"
	roleNotFoundMsg = "role not found"
)

// DBTX is satisfied by both the pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn in a transaction and commits when fn returns nil.
func (r *Repository) WithTx(ctx context.Context, fn func(q DBTX) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// conn returns q, or the pool when q is nil.
func (r *Repository) conn(q DBTX) DBTX {
	if q == nil {
		return r.pool
	}
	return q
}

type rowScanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// Tenants
// =============================================================================

// NewTenant holds the columns written when a tenant registers.
type NewTenant struct {
	Name     string
	Slug     string
	Email    string
	Phone    *string
	Plan     tenancy.Plan
	Settings tenancy.Settings
}

// SettingsUpdate holds optional tenant setting changes. Nil fields are untouched.
type SettingsUpdate struct {
	Name                     *string
	Phone                    *string
	InstagramEnabled         *bool
	FacebookEnabled          *bool
	AutoReplyEnabled         *bool
	SentimentAnalysisEnabled *bool
	LeadGenerationEnabled    *bool
	InstagramConfig          *tenancy.PlatformConfig
	FacebookConfig           *tenancy.PlatformConfig
	AIConfig                 *tenancy.AIConfig
}

const tenantColumns = `id, name, slug, email, phone, plan, status,
	instagram_enabled, facebook_enabled, auto_reply_enabled, sentiment_analysis_enabled, lead_generation_enabled,
	instagram_config, facebook_config, ai_config, created_at, updated_at`

func scanTenant(row rowScanner) (tenancy.Tenant, error) {
	var t tenancy.Tenant
	var plan, status string
	var igRaw, fbRaw, aiRaw []byte
	if err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Email, &t.Phone, &plan, &status,
		&t.Settings.InstagramEnabled, &t.Settings.FacebookEnabled, &t.Settings.AutoReplyEnabled,
		&t.Settings.SentimentAnalysisEnabled, &t.Settings.LeadGenerationEnabled,
		&igRaw, &fbRaw, &aiRaw, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return tenancy.Tenant{}, err
	}
	t.Plan = tenancy.Plan(plan)
	t.Status = tenancy.TenantStatus(status)
	if err := unmarshalJSONColumn(igRaw, &t.InstagramConfig); err != nil {
		return tenancy.Tenant{}, fmt.Errorf("instagram_config: %w", err)
	}
	if err := unmarshalJSONColumn(fbRaw, &t.FacebookConfig); err != nil {
		return tenancy.Tenant{}, fmt.Errorf("facebook_config: %w", err)
	}
	if err := unmarshalJSONColumn(aiRaw, &t.AIConfig); err != nil {
		return tenancy.Tenant{}, fmt.Errorf("ai_config: %w", err)
	}
	return t, nil
}

func unmarshalJSONColumn(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func marshalOptional(v interface{}, present bool) ([]byte, error) {
	if !present {
		return nil, nil
	}
	return json.Marshal(v)
}

// CreateTenant inserts a tenant. A taken slug or email yields DuplicateTenant.
func (r *Repository) CreateTenant(ctx context.Context, q DBTX, in NewTenant) (tenancy.Tenant, error) {
	plan := in.Plan
	if plan == "" {
		plan = tenancy.PlanFree
	}
	t, err := scanTenant(r.conn(q).QueryRow(ctx, `
		INSERT INTO tenants (name, slug, email, phone, plan,
			instagram_enabled, facebook_enabled, auto_reply_enabled, sentiment_analysis_enabled, lead_generation_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+tenantColumns,
		in.Name, in.Slug, in.Email, in.Phone, string(plan),
		in.Settings.InstagramEnabled, in.Settings.FacebookEnabled, in.Settings.AutoReplyEnabled,
		in.Settings.SentimentAnalysisEnabled, in.Settings.LeadGenerationEnabled,
	))
	if db.IsUniqueViolation(err, "") {
		return tenancy.Tenant{}, apperr.DuplicateTenant()
	}
	return t, err
}

// GetTenant loads a tenant by id. Satisfies access.TenantReader.
func (r *Repository) GetTenant(ctx context.Context, id uuid.UUID) (tenancy.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return tenancy.Tenant{}, apperr.TenantNotFound()
	}
	return t, err
}

// GetTenantBySlug loads a tenant by its slug.
func (r *Repository) GetTenantBySlug(ctx context.Context, slug string) (tenancy.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return tenancy.Tenant{}, apperr.TenantNotFound()
	}
	return t, err
}

// ListActiveTenants returns every active tenant, oldest first.
func (r *Repository) ListActiveTenants(ctx context.Context) ([]tenancy.Tenant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE status = 'active' ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := make([]tenancy.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// UpdateTenantStatus sets the lifecycle status of a tenant.
func (r *Repository) UpdateTenantStatus(ctx context.Context, id uuid.UUID, status tenancy.TenantStatus) (tenancy.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx, `
		UPDATE tenants SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+tenantColumns, id, string(status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return tenancy.Tenant{}, apperr.TenantNotFound()
	}
	return t, err
}

// DeleteTenant removes a tenant. Comments, leads, inbox items, activity,
// roles and memberships go with it through ON DELETE CASCADE.
func (r *Repository) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.TenantNotFound()
	}
	return nil
}

// PlatformStats is the cross-tenant rollup shown to super admins.
type PlatformStats struct {
	Tenants         int64
	ActiveTenants   int64
	Users           int64
	ActiveUsers     int64
	Comments        int64
	NewComments     int64
	RepliedComments int64
	Leads           int64
	NewLeads        int64
	QualifiedLeads  int64
	Sentiment       map[string]int64
	Platform        map[string]int64
	TopTenants      []TenantActivity
}

// TenantActivity counts the comments and leads of one tenant.
type TenantActivity struct {
	ID           uuid.UUID
	Name         string
	Slug         string
	Status       string
	Plan         string
	CommentCount int64
	LeadCount    int64
}

const topTenantsLimit = 10

// PlatformStats aggregates counts across every tenant.
func (r *Repository) PlatformStats(ctx context.Context) (PlatformStats, error) {
	var s PlatformStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM tenants),
			(SELECT count(*) FROM tenants WHERE status = 'active'),
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM users WHERE is_active),
			(SELECT count(*) FROM comments),
			(SELECT count(*) FROM comments WHERE status = 'new'),
			(SELECT count(*) FROM comments WHERE is_replied),
			(SELECT count(*) FROM leads),
			(SELECT count(*) FROM leads WHERE status = 'new'),
			(SELECT count(*) FROM leads WHERE status = 'qualified')`).Scan(
		&s.Tenants, &s.ActiveTenants, &s.Users, &s.ActiveUsers,
		&s.Comments, &s.NewComments, &s.RepliedComments,
		&s.Leads, &s.NewLeads, &s.QualifiedLeads,
	)
	if err != nil {
		return PlatformStats{}, fmt.Errorf("count totals: %w", err)
	}

	if s.Sentiment, err = r.countBy(ctx, `SELECT sentiment, count(*) FROM comments GROUP BY sentiment`); err != nil {
		return PlatformStats{}, fmt.Errorf("sentiment breakdown: %w", err)
	}
	if s.Platform, err = r.countBy(ctx, `SELECT platform, count(*) FROM comments GROUP BY platform`); err != nil {
		return PlatformStats{}, fmt.Errorf("platform breakdown: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.name, t.slug, t.status, t.plan,
			(SELECT count(*) FROM comments c WHERE c.tenant_id = t.id) AS comment_count,
			(SELECT count(*) FROM leads l WHERE l.tenant_id = t.id) AS lead_count
		FROM tenants t
		ORDER BY comment_count DESC, t.created_at ASC
		LIMIT $1`, topTenantsLimit)
	if err != nil {
		return PlatformStats{}, fmt.Errorf("top tenants: %w", err)
	}
	defer rows.Close()

	s.TopTenants = make([]TenantActivity, 0, topTenantsLimit)
	for rows.Next() {
		var t TenantActivity
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Status, &t.Plan, &t.CommentCount, &t.LeadCount); err != nil {
			return PlatformStats{}, err
		}
		s.TopTenants = append(s.TopTenants, t)
	}
	return s, rows.Err()
}

func (r *Repository) countBy(ctx context.Context, sql string) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

// UpdateSettings applies the non-nil fields of u.
func (r *Repository) UpdateSettings(ctx context.Context, id uuid.UUID, u SettingsUpdate) (tenancy.Tenant, error) {
	igRaw, err := marshalOptional(u.InstagramConfig, u.InstagramConfig != nil)
	if err != nil {
		return tenancy.Tenant{}, err
	}
	fbRaw, err := marshalOptional(u.FacebookConfig, u.FacebookConfig != nil)
	if err != nil {
		return tenancy.Tenant{}, err
	}
	aiRaw, err := marshalOptional(u.AIConfig, u.AIConfig != nil)
	if err != nil {
		return tenancy.Tenant{}, err
	}

	t, err := scanTenant(r.pool.QueryRow(ctx, `
		UPDATE tenants SET
			name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			instagram_enabled = COALESCE($4, instagram_enabled),
			facebook_enabled = COALESCE($5, facebook_enabled),
			auto_reply_enabled = COALESCE($6, auto_reply_enabled),
			sentiment_analysis_enabled = COALESCE($7, sentiment_analysis_enabled),
			lead_generation_enabled = COALESCE($8, lead_generation_enabled),
			instagram_config = COALESCE($9::jsonb, instagram_config),
			facebook_config = COALESCE($10::jsonb, facebook_config),
			ai_config = COALESCE($11::jsonb, ai_config),
			updated_at = now()
		WHERE id = $1
		RETURNING `+tenantColumns,
		id, u.Name, u.Phone, u.InstagramEnabled, u.FacebookEnabled, u.AutoReplyEnabled,
		u.SentimentAnalysisEnabled, u.LeadGenerationEnabled, igRaw, fbRaw, aiRaw,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return tenancy.Tenant{}, apperr.TenantNotFound()
	}
	return t, err
}

// TouchPlatformSync records the time of the last successful sync for platform.
func (r *Repository) TouchPlatformSync(ctx context.Context, id uuid.UUID, platform tenancy.Platform, at time.Time) error {
	column, ok := platformConfigColumn(platform)
	if !ok {
		return apperr.Validation("unsupported platform")
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE tenants SET `+column+` = jsonb_set(`+column+`, '{lastSyncAt}', to_jsonb($2::timestamptz)), updated_at = now()
		WHERE id = $1`, id, at)
	return err
}

func platformConfigColumn(p tenancy.Platform) (string, bool) {
	switch p {
	case tenancy.PlatformInstagram:
		return "instagram_config", true
	case tenancy.PlatformFacebook:
		return "facebook_config", true
	}
	return "", false
}

// =============================================================================
// Users
// =============================================================================

// NewUser holds the columns written when a user is created.
type NewUser struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	UserType     tenancy.UserType
}

const userColumns = `id, email, password_hash, first_name, last_name, phone, user_type, is_active, last_login_at, created_at, updated_at`

func scanUser(row rowScanner) (tenancy.User, error) {
	var u tenancy.User
	var userType string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone,
		&userType, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return tenancy.User{}, err
	}
	u.UserType = tenancy.ParseUserType(userType)
	return u, nil
}

// CreateUser inserts a user. A taken email yields a conflict.
func (r *Repository) CreateUser(ctx context.Context, q DBTX, in NewUser) (tenancy.User, error) {
	u, err := scanUser(r.conn(q).QueryRow(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, phone, user_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		in.Email, in.PasswordHash, in.FirstName, in.LastName, in.Phone, string(in.UserType)))
	if db.IsUniqueViolation(err, "users_email_key") {
		return tenancy.User{}, apperr.Conflict("a user with this email already exists")
	}
	return u, err
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (tenancy.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return tenancy.User{}, apperr.NotFound(userNotFoundMsg)
	}
	return u, err
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (tenancy.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return tenancy.User{}, apperr.NotFound(userNotFoundMsg)
	}
	return u, err
}

func (r *Repository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, id)
	return err
}

// =============================================================================
// Memberships
// =============================================================================

const membershipSelect = `
	SELECT m.user_id, m.tenant_id, m.role_id, m.status, m.joined_at,
		r.id, r.tenant_id, r.name, r.description, r.level, r.permissions, r.is_system_role, r.is_active, r.created_at, r.updated_at
	FROM memberships m
	LEFT JOIN roles r ON r.id = m.role_id AND r.tenant_id = m.tenant_id`

func scanMembership(row rowScanner) (tenancy.Membership, error) {
	var m tenancy.Membership
	var status string
	var roleID, roleTenantID *uuid.UUID
	var name, description *string
	var level *int
	var perms []byte
	var isSystem, isActive *bool
	var createdAt, updatedAt *time.Time
	if err := row.Scan(&m.UserID, &m.TenantID, &m.RoleID, &status, &m.JoinedAt,
		&roleID, &roleTenantID, &name, &description, &level, &perms, &isSystem, &isActive, &createdAt, &updatedAt); err != nil {
		return tenancy.Membership{}, err
	}
	m.Status = tenancy.MembershipStatus(status)
	if roleID != nil {
		role := &tenancy.Role{
			ID:           *roleID,
			TenantID:     *roleTenantID,
			Name:         *name,
			Description:  *description,
			Level:        *level,
			IsSystemRole: *isSystem,
			IsActive:     *isActive,
			CreatedAt:    *createdAt,
			UpdatedAt:    *updatedAt,
		}
		if err := unmarshalJSONColumn(perms, &role.Permissions); err != nil {
			return tenancy.Membership{}, fmt.Errorf("role permissions: %w", err)
		}
		m.Role = role
	}
	return m, nil
}

// GetMembership loads userID's membership in tenantID with its role.
// Satisfies access.MembershipReader.
func (r *Repository) GetMembership(ctx context.Context, userID, tenantID uuid.UUID) (tenancy.Membership, error) {
	m, err := scanMembership(r.pool.QueryRow(ctx, membershipSelect+` WHERE m.user_id = $1 AND m.tenant_id = $2`, userID, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return tenancy.Membership{}, apperr.NotAMember()
	}
	return m, err
}

// ListUserMemberships returns every membership of userID.
func (r *Repository) ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]tenancy.Membership, error) {
	rows, err := r.pool.Query(ctx, membershipSelect+` WHERE m.user_id = $1 ORDER BY m.joined_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]tenancy.Membership, 0)
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// IsActiveMember reports whether userID has an active membership in tenantID.
func (r *Repository) IsActiveMember(ctx context.Context, tenantID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM memberships WHERE tenant_id = $1 AND user_id = $2 AND status = 'active'
		)`, tenantID, userID).Scan(&ok)
	return ok, err
}

// UpsertMembership creates or reactivates userID's membership in tenantID.
// The composite foreign key rejects a role from another tenant.
func (r *Repository) UpsertMembership(ctx context.Context, q DBTX, userID, tenantID uuid.UUID, roleID *uuid.UUID) error {
	_, err := r.conn(q).Exec(ctx, `
		INSERT INTO memberships (user_id, tenant_id, role_id, status)
		VALUES ($1, $2, $3, 'active')
		ON CONFLICT (user_id, tenant_id) DO UPDATE
		SET role_id = EXCLUDED.role_id, status = 'active'`, userID, tenantID, roleID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return apperr.Validation("role does not belong to this tenant")
	}
	return err
}

// =============================================================================
// Roles
// =============================================================================

// NewRole holds the columns written when a role is created.
type NewRole struct {
	Name         string
	Description  string
	Level        int
	Permissions  tenancy.PermissionMatrix
	IsSystemRole bool
}

// RoleUpdate holds optional role changes. Nil fields are untouched.
type RoleUpdate struct {
	Name        *string
	Description *string
	Level       *int
	Permissions tenancy.PermissionMatrix
	IsActive    *bool
}

const roleColumns = `id, tenant_id, name, description, level, permissions, is_system_role, is_active, created_at, updated_at`

func scanRole(row rowScanner) (tenancy.Role, error) {
	var role tenancy.Role
	var perms []byte
	if err := row.Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.Level, &perms,
		&role.IsSystemRole, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return tenancy.Role{}, err
	}
	if err := unmarshalJSONColumn(perms, &role.Permissions); err != nil {
		return tenancy.Role{}, fmt.Errorf("role permissions: %w", err)
	}
	return role, nil
}

// CreateRole inserts a role. A duplicate name inside the tenant yields a conflict.
func (r *Repository) CreateRole(ctx context.Context, q DBTX, tenantID uuid.UUID, in NewRole) (tenancy.Role, error) {
	perms, err := json.Marshal(in.Permissions)
	if err != nil {
		return tenancy.Role{}, err
	}
	role, err := scanRole(r.conn(q).QueryRow(ctx, `
		INSERT INTO roles (tenant_id, name, description, level, permissions, is_system_role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+roleColumns,
		tenantID, in.Name, in.Description, in.Level, perms, in.IsSystemRole))
	if db.IsUniqueViolation(err, "roles_tenant_id_name_key") {
		return tenancy.Role{}, apperr.Conflict("a role with this name already exists")
	}
	return role, err
}

func (r *Repository) GetRole(ctx context.Context, tenantID, id uuid.UUID) (tenancy.Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return tenancy.Role{}, apperr.NotFound(roleNotFoundMsg)
	}
	return role, err
}

// ListRoles returns the roles of tenantID, highest level first.
func (r *Repository) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]tenancy.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles WHERE tenant_id = $1 ORDER BY level DESC, name ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]tenancy.Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// UpdateRole applies u to a role of tenantID.
func (r *Repository) UpdateRole(ctx context.Context, tenantID, id uuid.UUID, u RoleUpdate) (tenancy.Role, error) {
	var perms []byte
	if u.Permissions != nil {
		var err error
		if perms, err = json.Marshal(u.Permissions); err != nil {
			return tenancy.Role{}, err
		}
	}
	role, err := scanRole(r.pool.QueryRow(ctx, `
		UPDATE roles SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			level = COALESCE($5, level),
			permissions = COALESCE($6::jsonb, permissions),
			is_active = COALESCE($7, is_active),
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+roleColumns,
		tenantID, id, u.Name, u.Description, u.Level, perms, u.IsActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return tenancy.Role{}, apperr.NotFound(roleNotFoundMsg)
	}
	if db.IsUniqueViolation(err, "roles_tenant_id_name_key") {
		return tenancy.Role{}, apperr.Conflict("a role with this name already exists")
	}
	return role, err
}
