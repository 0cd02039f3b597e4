// Package audit records team lifecycle events to a durable trail.
//
// Every mutation of a business team (invitations, membership changes,
// access requests) produces one event. The trail is append-only and is
// written best-effort; a failed write never fails the operation itself.
package audit

import (
	"encoding/json"
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	// Invitation lifecycle
	EventInvitationCreated  EventType = "invitation.created"
	EventInvitationAccepted EventType = "invitation.accepted"
	EventInvitationDeclined EventType = "invitation.declined"
	EventInvitationRevoked  EventType = "invitation.revoked"

	// Membership lifecycle
	EventMemberAdded       EventType = "member.added"
	EventMemberRoleChanged EventType = "member.role_changed"
	EventMemberRemoved     EventType = "member.removed"
	EventMemberLeft        EventType = "member.left"

	// Access request lifecycle
	EventAccessRequested EventType = "access_request.created"
	EventAccessApproved  EventType = "access_request.approved"
	EventAccessRejected  EventType = "access_request.rejected"

	// Business lifecycle
	EventBusinessCreated EventType = "business.created"
	EventBusinessUpdated EventType = "business.updated"
	EventBusinessDeleted EventType = "business.deleted"
)

// Event is a single audit trail entry
type Event struct {
	ID         int64                  `json:"id"`
	BusinessID int64                  `json:"business_id"`
	ActorID    int64                  `json:"actor_id"`
	Action     EventType              `json:"action"`
	Target     string                 `json:"target,omitempty"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// detailJSON serializes the detail map, defaulting to an empty object
func (e *Event) detailJSON() ([]byte, error) {
	if e.Detail == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e.Detail)
}
