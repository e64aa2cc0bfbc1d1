// Package events carries domain events between modules in one process.
// This is part of the platform layer and contains no business logic.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName is the subscription key, e.g. "leads.lead.generated".
	EventName() string
	OccurredAt() time.Time
}

// TenantScoped is an event that belongs to exactly one tenant.
type TenantScoped interface {
	Event
	EventTenant() uuid.UUID
}

// TenantOf returns the owning tenant of event. ok is false for events
// that are not tenant scoped or carry a nil tenant.
func TenantOf(event Event) (uuid.UUID, bool) {
	scoped, ok := event.(TenantScoped)
	if !ok {
		return uuid.Nil, false
	}
	id := scoped.EventTenant()
	return id, id != uuid.Nil
}

// BaseEvent stamps an event with the time it was raised.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}
