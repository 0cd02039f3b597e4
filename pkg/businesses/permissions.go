package businesses

import (
	"database/sql"
	"fmt"

	"github.com/platinummonkey/brandhub/pkg/roles"
)

// ResolvePermission computes the full capability set for a (user, business)
// pair: owner first, then membership, then an explicit all-false row for
// non-members. The store re-evaluates on every call; CachedService layers an
// optional short-TTL cache on top.
func (s *PostgresService) ResolvePermission(userID, businessID int64) (*UserBusinessPermission, error) {
	ownerID, err := s.businessOwner(businessID)
	if err != nil {
		return nil, err
	}

	if userID == ownerID {
		return &UserBusinessPermission{
			BusinessID:   businessID,
			UserID:       userID,
			Role:         roles.RoleOwner,
			Capabilities: roles.CapabilitiesFor(roles.RoleOwner),
		}, nil
	}

	var role roles.Role
	err = s.db.QueryRow(`
		SELECT role FROM business_members
		WHERE business_id = $1 AND user_id = $2
	`, businessID, userID).Scan(&role)
	if err == sql.ErrNoRows {
		// Non-members get a representable no-access row, never an error.
		return &UserBusinessPermission{
			BusinessID:   businessID,
			UserID:       userID,
			Capabilities: roles.None(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve membership: %w", err)
	}

	return &UserBusinessPermission{
		BusinessID:   businessID,
		UserID:       userID,
		Role:         role,
		Capabilities: roles.CapabilitiesFor(role),
	}, nil
}
