package businesses

import (
	"time"

	"github.com/platinummonkey/brandhub/pkg/auth"
	"github.com/platinummonkey/brandhub/pkg/roles"
)

// Business represents a tenant-like unit owned by exactly one user.
type Business struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description,omitempty"`
	OwnerID     int64          `json:"owner_id"`
	Settings    map[string]any `json:"settings,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BusinessMember represents a non-owner user's active participation in a
// business. The owner never has a member row.
type BusinessMember struct {
	ID         int64      `json:"id"`
	BusinessID int64      `json:"business_id"`
	UserID     int64      `json:"user_id"`
	Role       roles.Role `json:"role"`
	InvitedBy  *int64     `json:"invited_by,omitempty"`
	JoinedAt   time.Time  `json:"joined_at"`
	CreatedAt  time.Time  `json:"created_at"`
	Username   string     `json:"username"`
	Email      string     `json:"email,omitempty"`
	FullName   string     `json:"full_name,omitempty"`
}

// InvitationStatus is the persisted invitation state. Expiry is derived
// at read time from ExpiresAt and is never stored.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired" // derived, read-time only
)

// BusinessInvitation is a pending offer to join a business at a given role,
// identified by an unguessable token.
type BusinessInvitation struct {
	ID              int64            `json:"id"`
	BusinessID      int64            `json:"business_id"`
	Email           string           `json:"email"`
	Role            roles.Role       `json:"role"`
	Token           string           `json:"token,omitempty"`
	Status          InvitationStatus `json:"status"`
	InvitedBy       int64            `json:"invited_by"`
	ExpiresAt       time.Time        `json:"expires_at"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	InviterUsername string           `json:"inviter_username,omitempty"`
	BusinessName    string           `json:"business_name,omitempty"`
}

// EffectiveStatus returns the caller-facing status at the given time:
// a pending invitation past its expiry reads as expired even though the
// stored status is still pending.
func (i *BusinessInvitation) EffectiveStatus(now time.Time) InvitationStatus {
	if i.Status == InvitationPending && now.After(i.ExpiresAt) {
		return InvitationExpired
	}
	return i.Status
}

// AccessRequestStatus is the state of a user-initiated access request.
type AccessRequestStatus string

const (
	AccessRequestPending  AccessRequestStatus = "pending"
	AccessRequestApproved AccessRequestStatus = "approved"
	AccessRequestRejected AccessRequestStatus = "rejected"
)

// BusinessAccessRequest is a user-initiated request to join a business.
// Unlike invitations there is no token and no expiry.
type BusinessAccessRequest struct {
	ID            int64               `json:"id"`
	BusinessID    int64               `json:"business_id"`
	UserID        int64               `json:"user_id"`
	RequestedRole roles.Role          `json:"requested_role"`
	Message       string              `json:"message,omitempty"`
	Status        AccessRequestStatus `json:"status"`
	ReviewedBy    *int64              `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time          `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Username      string              `json:"username,omitempty"`
}

// UserBusinessPermission is the resolved capability row for a (user, business)
// pair. It is computed on demand and never persisted; "no access" is a
// legitimate all-false row, not an error.
type UserBusinessPermission struct {
	BusinessID int64      `json:"business_id"`
	UserID     int64      `json:"user_id"`
	Role       roles.Role `json:"role"`
	roles.Capabilities
}

// MemberList is the result of listing a business's team: the owner profile
// is a first-class field, distinct from member rows. Owner may be nil when
// the profile lookup degrades; member data is still returned.
type MemberList struct {
	Owner   *auth.User        `json:"owner"`
	Members []*BusinessMember `json:"members"`
}

// CreateBusinessRequest is the payload for creating a business.
type CreateBusinessRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
}

// UpdateBusinessRequest is the payload for updating a business.
type UpdateBusinessRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
}

// InviteRequest is the payload for creating an invitation.
type InviteRequest struct {
	Email string     `json:"email"`
	Role  roles.Role `json:"role"`
}

// UpdateMemberRequest is the payload for changing a member's role.
type UpdateMemberRequest struct {
	Role roles.Role `json:"role"`
}

// AccessRequestInput is the payload for requesting access to a business.
type AccessRequestInput struct {
	RequestedRole roles.Role `json:"requested_role"`
	Message       string     `json:"message,omitempty"`
}

// ReviewDecision is the verdict applied to a pending access request.
type ReviewDecision string

const (
	ReviewApprove ReviewDecision = "approve"
	ReviewReject  ReviewDecision = "reject"
)

// Service defines the team authorization and invitation-lifecycle engine.
type Service interface {
	// Business CRUD
	CreateBusiness(business *Business) error
	GetBusiness(id int64) (*Business, error)
	ListBusinesses(userID int64) ([]*Business, error)
	UpdateBusiness(id int64, callerID int64, updates *UpdateBusinessRequest) error
	DeleteBusiness(id int64, callerID int64) error

	// Permission resolution (read-only, never errors for non-members)
	ResolvePermission(userID, businessID int64) (*UserBusinessPermission, error)

	// Membership management
	ListMembers(businessID, callerID int64) (*MemberList, error)
	UpdateMemberRole(businessID, targetUserID int64, role roles.Role, callerID int64) error
	RemoveMember(businessID, targetUserID, callerID int64) error

	// Invitation lifecycle
	CreateInvitation(businessID int64, email string, role roles.Role, inviterID int64) (*BusinessInvitation, error)
	ListInvitations(businessID, callerID int64) ([]*BusinessInvitation, error)
	GetInvitationByToken(token string) (*BusinessInvitation, error)
	AcceptInvitation(token string, userID int64, userEmail string) (*BusinessInvitation, error)
	DeclineInvitation(token string) error
	RevokeInvitation(businessID, invitationID, callerID int64) error
	PruneExpiredInvitations(olderThan time.Duration) (int64, error)

	// Access requests
	CreateAccessRequest(businessID, userID int64, input *AccessRequestInput) (*BusinessAccessRequest, error)
	ListAccessRequests(businessID, callerID int64) ([]*BusinessAccessRequest, error)
	ReviewAccessRequest(businessID, requestID, callerID int64, decision ReviewDecision) (*BusinessAccessRequest, error)
}
