// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"engagement_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	Scoped      = events.TenantScoped
)

// Re-export platform functions
var (
	NewBaseEvent = events.NewBaseEvent
	TenantOf     = events.TenantOf
)

// =============================================================================
// Identity Domain Events
// =============================================================================

// TenantRegistered is published when a signup creates a tenant and its admin.
type TenantRegistered struct {
	BaseEvent
	TenantID uuid.UUID `json:"tenantId"`
	UserID   uuid.UUID `json:"userId"`
	Slug     string    `json:"slug"`
	Email    string    `json:"email"`
}

func (e TenantRegistered) EventName() string      { return "identity.tenant.registered" }
func (e TenantRegistered) EventTenant() uuid.UUID { return e.TenantID }

// TenantStatusChanged is published when a super admin changes a tenant's status.
type TenantStatusChanged struct {
	BaseEvent
	TenantID uuid.UUID `json:"tenantId"`
	ActorID  uuid.UUID `json:"actorId"`
	Status   string    `json:"status"`
}

func (e TenantStatusChanged) EventName() string      { return "identity.tenant.status_changed" }
func (e TenantStatusChanged) EventTenant() uuid.UUID { return e.TenantID }

// MemberAdded is published when a user joins or rejoins a tenant.
type MemberAdded struct {
	BaseEvent
	TenantID uuid.UUID  `json:"tenantId"`
	UserID   uuid.UUID  `json:"userId"`
	RoleID   *uuid.UUID `json:"roleId,omitempty"`
	ActorID  uuid.UUID  `json:"actorId"`
}

func (e MemberAdded) EventName() string      { return "identity.member.added" }
func (e MemberAdded) EventTenant() uuid.UUID { return e.TenantID }

// RoleChanged is published when a role is created, updated or deactivated.
type RoleChanged struct {
	BaseEvent
	TenantID uuid.UUID `json:"tenantId"`
	RoleID   uuid.UUID `json:"roleId"`
	ActorID  uuid.UUID `json:"actorId"`
	Action   string    `json:"action"`
	Name     string    `json:"name"`
}

func (e RoleChanged) EventName() string      { return "identity.role.changed" }
func (e RoleChanged) EventTenant() uuid.UUID { return e.TenantID }

// =============================================================================
// Engagement Domain Events
// =============================================================================

// CommentsIngested is published after a sync or webhook batch is stored.
type CommentsIngested struct {
	BaseEvent
	TenantID uuid.UUID `json:"tenantId"`
	Platform string    `json:"platform"`
	Origin   string    `json:"origin"`
	Seen     int       `json:"seen"`
	Created  int       `json:"created"`
}

func (e CommentsIngested) EventName() string      { return "engagement.comments.ingested" }
func (e CommentsIngested) EventTenant() uuid.UUID { return e.TenantID }

// CommentReplied is published after a reply was sent and recorded.
// ActorID is nil for automatic replies.
type CommentReplied struct {
	BaseEvent
	TenantID  uuid.UUID  `json:"tenantId"`
	CommentID uuid.UUID  `json:"commentId"`
	Platform  string     `json:"platform"`
	Auto      bool       `json:"auto"`
	ActorID   *uuid.UUID `json:"actorId,omitempty"`
}

func (e CommentReplied) EventName() string      { return "engagement.comment.replied" }
func (e CommentReplied) EventTenant() uuid.UUID { return e.TenantID }

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadGenerated is published when a lead is created from a comment or by hand.
type LeadGenerated struct {
	BaseEvent
	TenantID  uuid.UUID  `json:"tenantId"`
	LeadID    uuid.UUID  `json:"leadId"`
	CommentID *uuid.UUID `json:"commentId,omitempty"`
	ActorID   *uuid.UUID `json:"actorId,omitempty"`
	Source    string     `json:"source"`
	Name      string     `json:"name"`
	Priority  string     `json:"priority"`
	Score     int        `json:"score"`
}

func (e LeadGenerated) EventName() string      { return "leads.lead.generated" }
func (e LeadGenerated) EventTenant() uuid.UUID { return e.TenantID }

var (
	_ Scoped = TenantRegistered{}
	_ Scoped = TenantStatusChanged{}
	_ Scoped = MemberAdded{}
	_ Scoped = RoleChanged{}
	_ Scoped = CommentsIngested{}
	_ Scoped = CommentReplied{}
	_ Scoped = LeadGenerated{}
)
