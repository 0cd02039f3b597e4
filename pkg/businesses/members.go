package businesses

import (
	"database/sql"
	"fmt"

	"github.com/platinummonkey/brandhub/pkg/auth"
	"github.com/platinummonkey/brandhub/pkg/roles"
)

// ListMembers retrieves a business's team. Requires the view capability.
// The owner profile is returned as a distinct field; if its lookup fails the
// member list is still returned with a nil owner.
func (s *PostgresService) ListMembers(businessID, callerID int64) (*MemberList, error) {
	perm, err := s.ResolvePermission(callerID, businessID)
	if err != nil {
		return nil, err
	}
	if !perm.CanView {
		return nil, fmt.Errorf("%w: view capability required", ErrPermissionDenied)
	}

	query := `
		SELECT m.id, m.business_id, m.user_id, m.role, m.invited_by, m.joined_at, m.created_at,
		       u.username, u.email, u.full_name
		FROM business_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.business_id = $1
		ORDER BY m.created_at ASC
	`
	rows, err := s.db.Query(query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*BusinessMember
	for rows.Next() {
		member := &BusinessMember{}
		var email, fullName sql.NullString
		if err := rows.Scan(
			&member.ID, &member.BusinessID, &member.UserID, &member.Role,
			&member.InvitedBy, &member.JoinedAt, &member.CreatedAt,
			&member.Username, &email, &fullName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if email.Valid {
			member.Email = email.String
		}
		if fullName.Valid {
			member.FullName = fullName.String
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	// Owner metadata degrades independently of member data.
	list := &MemberList{Members: members}
	ownerID, err := s.businessOwner(businessID)
	if err == nil {
		if owner, err := s.getUser(ownerID); err == nil {
			list.Owner = owner
		}
	}

	return list, nil
}

// UpdateMemberRole changes a member's role. Requires the manage_team
// capability; the role must be assignable (owner is not).
func (s *PostgresService) UpdateMemberRole(businessID, targetUserID int64, role roles.Role, callerID int64) error {
	if !roles.Assignable(role) {
		return fmt.Errorf("%w: role must be one of admin, editor, viewer", ErrValidation)
	}

	ownerID, err := s.businessOwner(businessID)
	if err != nil {
		return err
	}
	if err := s.requireCapability(callerID, businessID, func(c roles.Capabilities) bool { return c.CanManageTeam }, "manage_team"); err != nil {
		return err
	}
	if targetUserID == ownerID {
		return ErrOwnerImmutable
	}

	result, err := s.db.Exec(`
		UPDATE business_members SET role = $1
		WHERE business_id = $2 AND user_id = $3
	`, role, businessID, targetUserID)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: member not found", ErrNotFound)
	}

	return nil
}

// RemoveMember removes a user from a business. A member may always remove
// themselves regardless of role; removing anyone else requires manage_team.
// The owner can never be a removal target.
func (s *PostgresService) RemoveMember(businessID, targetUserID, callerID int64) error {
	ownerID, err := s.businessOwner(businessID)
	if err != nil {
		return err
	}
	if targetUserID == ownerID {
		return ErrOwnerImmutable
	}

	// Self-removal bypasses the manage_team check entirely.
	if callerID != targetUserID {
		if err := s.requireCapability(callerID, businessID, func(c roles.Capabilities) bool { return c.CanManageTeam }, "manage_team"); err != nil {
			return err
		}
	}

	result, err := s.db.Exec(`
		DELETE FROM business_members
		WHERE business_id = $1 AND user_id = $2
	`, businessID, targetUserID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: member not found", ErrNotFound)
	}

	return nil
}

// addMemberTx upserts a membership row inside a transaction. Both invitation
// acceptance and access-request approval converge on this single path, so an
// existing membership is a safe no-op rather than a duplicate-key failure.
func addMemberTx(tx *sql.Tx, businessID, userID int64, role roles.Role, invitedBy *int64) error {
	_, err := tx.Exec(`
		INSERT INTO business_members (business_id, user_id, role, invited_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (business_id, user_id) DO NOTHING
	`, businessID, userID, role, invitedBy)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// getUser fetches a user profile by id
func (s *PostgresService) getUser(userID int64) (*auth.User, error) {
	user := &auth.User{}
	var email, fullName sql.NullString
	err := s.db.QueryRow(`
		SELECT id, username, email, full_name, is_active, created_at, updated_at
		FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &user.Username, &email, &fullName,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if email.Valid {
		user.Email = email.String
	}
	if fullName.Valid {
		user.FullName = fullName.String
	}
	return user, nil
}
