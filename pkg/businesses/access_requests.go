package businesses

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/brandhub/pkg/roles"
)

// ErrDuplicateAccessRequest mirrors ErrDuplicateInvitation for the
// reverse-direction flow: at most one pending request per (business, user).
var ErrDuplicateAccessRequest = errors.New("an access request is already pending for this business")

// CreateAccessRequest records a user's request to join a business. Any
// authenticated user may request access to any business; only editor and
// viewer may be requested.
func (s *PostgresService) CreateAccessRequest(businessID, userID int64, input *AccessRequestInput) (*BusinessAccessRequest, error) {
	if !roles.Requestable(input.RequestedRole) {
		return nil, fmt.Errorf("%w: requested role must be editor or viewer", ErrValidation)
	}

	ownerID, err := s.businessOwner(businessID)
	if err != nil {
		return nil, err
	}
	if ownerID == userID {
		return nil, fmt.Errorf("%w: you already own this business", ErrValidation)
	}

	perm, err := s.ResolvePermission(userID, businessID)
	if err != nil {
		return nil, err
	}
	if perm.CanView {
		return nil, fmt.Errorf("%w: you are already a member of this business", ErrValidation)
	}

	request := &BusinessAccessRequest{
		BusinessID:    businessID,
		UserID:        userID,
		RequestedRole: input.RequestedRole,
		Message:       strings.TrimSpace(input.Message),
		Status:        AccessRequestPending,
	}

	err = s.db.QueryRow(`
		INSERT INTO business_access_requests (business_id, user_id, requested_role, message, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, businessID, userID, input.RequestedRole, request.Message, AccessRequestPending).
		Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateAccessRequest
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create access request: %w", err)
	}

	return request, nil
}

// ListAccessRequests lists all access requests for a business, newest first.
// Requires the manage_team capability.
func (s *PostgresService) ListAccessRequests(businessID, callerID int64) ([]*BusinessAccessRequest, error) {
	if err := s.requireCapability(callerID, businessID, func(c roles.Capabilities) bool { return c.CanManageTeam }, "manage_team"); err != nil {
		return nil, err
	}

	query := `
		SELECT r.id, r.business_id, r.user_id, r.requested_role, r.message, r.status,
		       r.reviewed_by, r.reviewed_at, r.created_at, r.updated_at, u.username
		FROM business_access_requests r
		JOIN users u ON u.id = r.user_id
		WHERE r.business_id = $1
		ORDER BY r.created_at DESC
	`
	rows, err := s.db.Query(query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list access requests: %w", err)
	}
	defer rows.Close()

	var requests []*BusinessAccessRequest
	for rows.Next() {
		request := &BusinessAccessRequest{}
		var message sql.NullString
		if err := rows.Scan(
			&request.ID, &request.BusinessID, &request.UserID, &request.RequestedRole,
			&message, &request.Status, &request.ReviewedBy, &request.ReviewedAt,
			&request.CreatedAt, &request.UpdatedAt, &request.Username,
		); err != nil {
			return nil, fmt.Errorf("failed to scan access request: %w", err)
		}
		if message.Valid {
			request.Message = message.String
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

// ReviewAccessRequest approves or rejects a pending access request. Requires
// manage_team. Approval materializes a membership at the requested role
// through the same upsert path as invitation acceptance, in the same
// transaction as the status change.
func (s *PostgresService) ReviewAccessRequest(businessID, requestID, callerID int64, decision ReviewDecision) (*BusinessAccessRequest, error) {
	if decision != ReviewApprove && decision != ReviewReject {
		return nil, fmt.Errorf("%w: decision must be approve or reject", ErrValidation)
	}
	if err := s.requireCapability(callerID, businessID, func(c roles.Capabilities) bool { return c.CanManageTeam }, "manage_team"); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	request := &BusinessAccessRequest{}
	var message sql.NullString
	err = tx.QueryRow(`
		SELECT id, business_id, user_id, requested_role, message, status, reviewed_by, reviewed_at, created_at, updated_at
		FROM business_access_requests
		WHERE id = $1 AND business_id = $2
		FOR UPDATE
	`, requestID, businessID).Scan(
		&request.ID, &request.BusinessID, &request.UserID, &request.RequestedRole,
		&message, &request.Status, &request.ReviewedBy, &request.ReviewedAt,
		&request.CreatedAt, &request.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: access request", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get access request: %w", err)
	}
	if message.Valid {
		request.Message = message.String
	}

	if request.Status != AccessRequestPending {
		return nil, fmt.Errorf("%w: access request already %s", ErrInvalidStateTransition, request.Status)
	}

	status := AccessRequestRejected
	if decision == ReviewApprove {
		status = AccessRequestApproved
		reviewer := callerID
		if err := addMemberTx(tx, businessID, request.UserID, request.RequestedRole, &reviewer); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	if _, err := tx.Exec(`
		UPDATE business_access_requests
		SET status = $1, reviewed_by = $2, reviewed_at = $3, updated_at = NOW()
		WHERE id = $4
	`, status, callerID, now, request.ID); err != nil {
		return nil, fmt.Errorf("failed to update access request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit review: %w", err)
	}

	request.Status = status
	request.ReviewedBy = &callerID
	request.ReviewedAt = &now
	return request, nil
}
