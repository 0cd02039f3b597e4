// Package roles defines the business role hierarchy and its capability matrix.
//
// The matrix is the single declarative source of what each role may do;
// callers look capabilities up here instead of branching on role names.
package roles

// Role represents a user's role within a business.
//
// Owner is implicit: it is derived from the business owner field and is
// never stored as a membership row.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Capabilities is the set of boolean permissions a role grants on a business.
type Capabilities struct {
	CanView       bool `json:"can_view"`
	CanEdit       bool `json:"can_edit"`
	CanManageTeam bool `json:"can_manage_team"`
	CanDelete     bool `json:"can_delete"`
}

// capabilityMatrix maps each role to its capabilities.
// owner > admin > editor > viewer; delete is owner-exclusive.
var capabilityMatrix = map[Role]Capabilities{
	RoleOwner:  {CanView: true, CanEdit: true, CanManageTeam: true, CanDelete: true},
	RoleAdmin:  {CanView: true, CanEdit: true, CanManageTeam: true, CanDelete: false},
	RoleEditor: {CanView: true, CanEdit: true, CanManageTeam: false, CanDelete: false},
	RoleViewer: {CanView: true, CanEdit: false, CanManageTeam: false, CanDelete: false},
}

// CapabilitiesFor returns the capabilities granted by a role.
// Unknown roles (including non-members) get no capabilities.
func CapabilitiesFor(role Role) Capabilities {
	return capabilityMatrix[role]
}

// None returns the all-false capability set used for non-members.
func None() Capabilities {
	return Capabilities{}
}

// Assignable reports whether a role may be stored on a membership row.
// Owner is excluded: ownership lives on the business record.
func Assignable(role Role) bool {
	switch role {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	default:
		return false
	}
}

// Requestable reports whether a role may be asked for via an access request.
func Requestable(role Role) bool {
	return role == RoleEditor || role == RoleViewer
}

// AssignableRoles returns the roles valid on a membership row, highest first.
func AssignableRoles() []Role {
	return []Role{RoleAdmin, RoleEditor, RoleViewer}
}
