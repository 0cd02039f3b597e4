package businesses

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/platinummonkey/brandhub/pkg/roles"
)

// PostgresService implements the Service interface using PostgreSQL
type PostgresService struct {
	db *sql.DB
}

// NewPostgresService creates a new PostgresService
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

// CreateBusiness creates a new business owned by business.OwnerID
func (s *PostgresService) CreateBusiness(business *Business) error {
	if strings.TrimSpace(business.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if business.Slug == "" {
		business.Slug = generateSlug(business.Name)
	}

	settingsJSON, err := json.Marshal(business.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	query := `
		INSERT INTO businesses (name, slug, description, owner_id, settings)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err = s.db.QueryRow(query, business.Name, business.Slug, business.Description,
		business.OwnerID, settingsJSON).
		Scan(&business.ID, &business.CreatedAt, &business.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: a business with this name already exists", ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("failed to create business: %w", err)
	}

	return nil
}

// GetBusiness retrieves a business by ID
func (s *PostgresService) GetBusiness(id int64) (*Business, error) {
	query := `
		SELECT id, name, slug, description, owner_id, settings, created_at, updated_at
		FROM businesses
		WHERE id = $1
	`
	business := &Business{}
	var settingsJSON []byte
	err := s.db.QueryRow(query, id).Scan(
		&business.ID, &business.Name, &business.Slug, &business.Description,
		&business.OwnerID, &settingsJSON, &business.CreatedAt, &business.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: business %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &business.Settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
		}
	}

	return business, nil
}

// ListBusinesses lists businesses a user owns or is a member of
func (s *PostgresService) ListBusinesses(userID int64) ([]*Business, error) {
	query := `
		SELECT DISTINCT b.id, b.name, b.slug, b.description, b.owner_id, b.settings,
		       b.created_at, b.updated_at
		FROM businesses b
		LEFT JOIN business_members m ON b.id = m.business_id AND m.user_id = $1
		WHERE b.owner_id = $1 OR m.user_id = $1
		ORDER BY b.created_at DESC
	`
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	defer rows.Close()

	var businesses []*Business
	for rows.Next() {
		business := &Business{}
		var settingsJSON []byte
		if err := rows.Scan(
			&business.ID, &business.Name, &business.Slug, &business.Description,
			&business.OwnerID, &settingsJSON, &business.CreatedAt, &business.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}
		if len(settingsJSON) > 0 {
			if err := json.Unmarshal(settingsJSON, &business.Settings); err != nil {
				return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
			}
		}
		businesses = append(businesses, business)
	}

	return businesses, rows.Err()
}

// UpdateBusiness updates a business. Requires the edit capability.
func (s *PostgresService) UpdateBusiness(id int64, callerID int64, updates *UpdateBusinessRequest) error {
	perm, err := s.ResolvePermission(callerID, id)
	if err != nil {
		return err
	}
	if !perm.CanEdit {
		return fmt.Errorf("%w: edit capability required", ErrPermissionDenied)
	}

	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	argPos := 1

	if updates.Name != nil {
		if strings.TrimSpace(*updates.Name) == "" {
			return fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argPos))
		args = append(args, *updates.Name)
		argPos++
	}
	if updates.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argPos))
		args = append(args, *updates.Description)
		argPos++
	}
	if updates.Settings != nil {
		settingsJSON, err := json.Marshal(updates.Settings)
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
		setClauses = append(setClauses, fmt.Sprintf("settings = $%d", argPos))
		args = append(args, settingsJSON)
		argPos++
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE businesses SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argPos)

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: business %d", ErrNotFound, id)
	}

	return nil
}

// DeleteBusiness deletes a business. Owner-exclusive; memberships,
// invitations and access requests cascade at the store level.
func (s *PostgresService) DeleteBusiness(id int64, callerID int64) error {
	perm, err := s.ResolvePermission(callerID, id)
	if err != nil {
		return err
	}
	if !perm.CanDelete {
		return fmt.Errorf("%w: only the owner can delete a business", ErrPermissionDenied)
	}

	result, err := s.db.Exec(`DELETE FROM businesses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete business: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: business %d", ErrNotFound, id)
	}

	return nil
}

// businessOwner returns the owner user id for a business
func (s *PostgresService) businessOwner(businessID int64) (int64, error) {
	var ownerID int64
	err := s.db.QueryRow(`SELECT owner_id FROM businesses WHERE id = $1`, businessID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: business %d", ErrNotFound, businessID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get business owner: %w", err)
	}
	return ownerID, nil
}

// requireCapability resolves the caller's permission and checks one capability
func (s *PostgresService) requireCapability(callerID, businessID int64, check func(roles.Capabilities) bool, capability string) error {
	perm, err := s.ResolvePermission(callerID, businessID)
	if err != nil {
		return err
	}
	if !check(perm.Capabilities) {
		return fmt.Errorf("%w: %s capability required", ErrPermissionDenied, capability)
	}
	return nil
}

// generateSlug derives a URL-safe slug from a business name
func generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, slug)
	return slug
}

// generateInvitationToken generates a URL-safe unguessable token
func generateInvitationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
