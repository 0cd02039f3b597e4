// Package businesses provides multi-user business (team) management.
//
// # Overview
//
// This package owns the team authorization and invitation-lifecycle engine:
// the role-scoped rules deciding who may view, edit, manage members, or
// delete a business, and the state machine that turns a pending invitation
// into an active membership.
//
// # Roles
//
// Every business has exactly one owner (stored on the business record, never
// as a member row) plus any number of members with role admin, editor, or
// viewer. Capabilities are looked up in the pkg/roles matrix; see
// ResolvePermission for the single source of truth consumed by handlers.
//
// # Invitation lifecycle
//
//	pending -> accepted | declined        (terminal)
//	pending -> (revoked: hard delete)     (out of band)
//
// "expired" is derived from expires_at at read time and never persisted, so
// the read path reflects reality without a background sweep. Acceptance
// requires the caller's email to match the invitation's target email;
// decline is public and works even past expiry.
//
// # Concurrency
//
// The engine holds no in-memory state. Duplicate pending invitations are
// prevented by a partial unique index; accept/decline on the same token
// serialize on a row lock, so exactly one wins and the other observes a
// conflict.
//
// # Related Packages
//
//   - pkg/roles: the role hierarchy and capability matrix
//   - pkg/auth: caller identity (user + API token)
//   - pkg/api: HTTP surface over this service
package businesses
