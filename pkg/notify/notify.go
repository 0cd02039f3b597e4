// Package notify publishes team lifecycle events to interested consumers.
//
// Events are best-effort. Publishing happens off the request path and a
// failed publish is logged, never surfaced to the caller.
package notify

import (
	"context"
	"time"
)

// EventType identifies a team lifecycle event
type EventType string

const (
	EventInvitationCreated  EventType = "invitation.created"
	EventInvitationAccepted EventType = "invitation.accepted"
	EventInvitationDeclined EventType = "invitation.declined"
	EventInvitationRevoked  EventType = "invitation.revoked"
	EventMemberAdded        EventType = "member.added"
	EventMemberRoleChanged  EventType = "member.role_changed"
	EventMemberRemoved      EventType = "member.removed"
	EventAccessRequested    EventType = "access_request.created"
	EventAccessReviewed     EventType = "access_request.reviewed"
)

// Event is the payload delivered to consumers
type Event struct {
	Type       EventType              `json:"type"`
	BusinessID int64                  `json:"business_id"`
	ActorID    int64                  `json:"actor_id,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Notifier delivers team events to a downstream channel
type Notifier interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
