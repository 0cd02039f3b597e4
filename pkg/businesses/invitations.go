package businesses

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/brandhub/pkg/roles"
)

// invitationTTL is the fixed window between creation and expiry.
const invitationTTL = 7 * 24 * time.Hour

// CreateInvitation creates a pending invitation. Requires the manage_team
// capability. At most one pending invitation may exist per (business, email);
// the partial unique index closes the race, so a concurrent duplicate insert
// surfaces as ErrDuplicateInvitation rather than a second pending row.
func (s *PostgresService) CreateInvitation(businessID int64, email string, role roles.Role, inviterID int64) (*BusinessInvitation, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if !roles.Assignable(role) {
		return nil, fmt.Errorf("%w: role must be one of admin, editor, viewer", ErrValidation)
	}

	if err := s.requireCapability(inviterID, businessID, func(c roles.Capabilities) bool { return c.CanManageTeam }, "manage_team"); err != nil {
		return nil, err
	}

	token, err := generateInvitationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	invitation := &BusinessInvitation{
		BusinessID: businessID,
		Email:      email,
		Role:       role,
		Token:      token,
		Status:     InvitationPending,
		InvitedBy:  inviterID,
		ExpiresAt:  time.Now().Add(invitationTTL),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// A pending invitation past its expiry no longer blocks re-inviting;
	// clear it so the partial unique index only guards live invitations.
	_, err = tx.Exec(`
		DELETE FROM business_invitations
		WHERE business_id = $1 AND email = $2 AND status = 'pending' AND expires_at < NOW()
	`, businessID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to clear expired invitation: %w", err)
	}

	err = tx.QueryRow(`
		INSERT INTO business_invitations (business_id, email, role, token, status, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, businessID, email, role, token, InvitationPending, inviterID, invitation.ExpiresAt).
		Scan(&invitation.ID, &invitation.CreatedAt, &invitation.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateInvitation
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invitation: %w", err)
	}

	return invitation, nil
}

// ListInvitations lists all invitations for a business (any status), newest
// first, joined with inviter and business display info. Requires manage_team.
func (s *PostgresService) ListInvitations(businessID, callerID int64) ([]*BusinessInvitation, error) {
	if err := s.requireCapability(callerID, businessID, func(c roles.Capabilities) bool { return c.CanManageTeam }, "manage_team"); err != nil {
		return nil, err
	}

	query := `
		SELECT i.id, i.business_id, i.email, i.role, i.token, i.status, i.invited_by,
		       i.expires_at, i.created_at, i.updated_at, u.username, b.name
		FROM business_invitations i
		JOIN users u ON u.id = i.invited_by
		JOIN businesses b ON b.id = i.business_id
		WHERE i.business_id = $1
		ORDER BY i.created_at DESC
	`
	rows, err := s.db.Query(query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	var invitations []*BusinessInvitation
	for rows.Next() {
		invitation := &BusinessInvitation{}
		if err := rows.Scan(
			&invitation.ID, &invitation.BusinessID, &invitation.Email, &invitation.Role,
			&invitation.Token, &invitation.Status, &invitation.InvitedBy,
			&invitation.ExpiresAt, &invitation.CreatedAt, &invitation.UpdatedAt,
			&invitation.InviterUsername, &invitation.BusinessName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitation.Status = invitation.EffectiveStatus(now)
		invitations = append(invitations, invitation)
	}

	return invitations, rows.Err()
}

// GetInvitationByToken retrieves an invitation by its token. Public: the
// token itself is the credential. Expiry is computed here at read time, so
// the result reflects reality without any background sweep.
func (s *PostgresService) GetInvitationByToken(token string) (*BusinessInvitation, error) {
	query := `
		SELECT i.id, i.business_id, i.email, i.role, i.token, i.status, i.invited_by,
		       i.expires_at, i.created_at, i.updated_at, u.username, b.name
		FROM business_invitations i
		JOIN users u ON u.id = i.invited_by
		JOIN businesses b ON b.id = i.business_id
		WHERE i.token = $1
	`
	invitation := &BusinessInvitation{}
	err := s.db.QueryRow(query, token).Scan(
		&invitation.ID, &invitation.BusinessID, &invitation.Email, &invitation.Role,
		&invitation.Token, &invitation.Status, &invitation.InvitedBy,
		&invitation.ExpiresAt, &invitation.CreatedAt, &invitation.UpdatedAt,
		&invitation.InviterUsername, &invitation.BusinessName,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: invitation", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	invitation.Status = invitation.EffectiveStatus(time.Now())
	return invitation, nil
}

// AcceptInvitation accepts an invitation and materializes the membership.
// The accepting user's email must match the invitation's target email.
// Membership upsert and status update commit together or not at all.
func (s *PostgresService) AcceptInvitation(token string, userID int64, userEmail string) (*BusinessInvitation, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	invitation, err := lockInvitationByToken(tx, token)
	if err != nil {
		return nil, err
	}

	if invitation.Status != InvitationPending {
		return nil, fmt.Errorf("%w: invitation already %s", ErrInvalidStateTransition, invitation.Status)
	}
	if time.Now().After(invitation.ExpiresAt) {
		return nil, ErrInvitationExpired
	}
	if !strings.EqualFold(strings.TrimSpace(userEmail), invitation.Email) {
		return nil, ErrEmailMismatch
	}

	var ownerID int64
	if err := tx.QueryRow(`SELECT owner_id FROM businesses WHERE id = $1`, invitation.BusinessID).Scan(&ownerID); err != nil {
		return nil, fmt.Errorf("failed to get business owner: %w", err)
	}
	if ownerID == userID {
		return nil, fmt.Errorf("%w: the owner cannot join their own business as a member", ErrValidation)
	}

	invitedBy := invitation.InvitedBy
	if err := addMemberTx(tx, invitation.BusinessID, userID, invitation.Role, &invitedBy); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`
		UPDATE business_invitations SET status = $1, updated_at = NOW() WHERE id = $2
	`, InvitationAccepted, invitation.ID); err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit acceptance: %w", err)
	}

	invitation.Status = InvitationAccepted
	return invitation, nil
}

// DeclineInvitation declines an invitation. Public, and deliberately more
// permissive than accept: an expired invitation may still be declined, since
// expiry blocks acceptance, not decline. Two racing declines serialize on the
// row lock; the loser observes a non-pending status and gets a conflict.
func (s *PostgresService) DeclineInvitation(token string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	invitation, err := lockInvitationByToken(tx, token)
	if err != nil {
		return err
	}

	if invitation.Status != InvitationPending {
		return fmt.Errorf("%w: invitation already %s", ErrInvalidStateTransition, invitation.Status)
	}

	if _, err := tx.Exec(`
		UPDATE business_invitations SET status = $1, updated_at = NOW() WHERE id = $2
	`, InvitationDeclined, invitation.ID); err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}

	return tx.Commit()
}

// RevokeInvitation deletes an invitation. Requires manage_team. This is
// terminal cleanup, not a state transition: revoking an invitation that was
// already resolved (or already revoked) still succeeds.
func (s *PostgresService) RevokeInvitation(businessID, invitationID, callerID int64) error {
	if err := s.requireCapability(callerID, businessID, func(c roles.Capabilities) bool { return c.CanManageTeam }, "manage_team"); err != nil {
		return err
	}

	if _, err := s.db.Exec(`
		DELETE FROM business_invitations WHERE id = $1 AND business_id = $2
	`, invitationID, businessID); err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}

	return nil
}

// PruneExpiredInvitations removes pending invitations that expired more than
// olderThan ago. Housekeeping only: correctness never depends on it because
// expiry is derived at read time.
func (s *PostgresService) PruneExpiredInvitations(olderThan time.Duration) (int64, error) {
	result, err := s.db.Exec(`
		DELETE FROM business_invitations
		WHERE status = 'pending' AND expires_at < NOW() - $1::interval
	`, fmt.Sprintf("%d seconds", int64(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("failed to prune expired invitations: %w", err)
	}
	return result.RowsAffected()
}

// lockInvitationByToken loads an invitation row under FOR UPDATE so
// concurrent accept/decline calls on the same token serialize.
func lockInvitationByToken(tx *sql.Tx, token string) (*BusinessInvitation, error) {
	invitation := &BusinessInvitation{}
	err := tx.QueryRow(`
		SELECT id, business_id, email, role, token, status, invited_by, expires_at, created_at, updated_at
		FROM business_invitations
		WHERE token = $1
		FOR UPDATE
	`, token).Scan(
		&invitation.ID, &invitation.BusinessID, &invitation.Email, &invitation.Role,
		&invitation.Token, &invitation.Status, &invitation.InvitedBy,
		&invitation.ExpiresAt, &invitation.CreatedAt, &invitation.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: invitation", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return invitation, nil
}
