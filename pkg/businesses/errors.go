package businesses

import "errors"

var (
	// ErrUnauthenticated is returned when an operation requires a caller identity
	ErrUnauthenticated = errors.New("authentication required")

	// ErrPermissionDenied is returned when the caller lacks the required capability
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when the referenced record does not exist
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when input fails validation
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateInvitation is returned when a pending invitation already exists
	// for the same (business, email) pair
	ErrDuplicateInvitation = errors.New("a pending invitation already exists for this email")

	// ErrEmailMismatch is returned when the accepting user's email does not match
	// the invitation's target email
	ErrEmailMismatch = errors.New("invitation was issued to a different email address")

	// ErrInvitationExpired is returned when accepting an invitation past its expiry
	ErrInvitationExpired = errors.New("invitation has expired")

	// ErrInvalidStateTransition is returned when an invitation or access request
	// is no longer pending
	ErrInvalidStateTransition = errors.New("already resolved")

	// ErrOwnerImmutable is returned when an operation targets the business owner
	// as if they were a member
	ErrOwnerImmutable = errors.New("business owner cannot be modified or removed as a member")
)
