package auth

import (
	"database/sql"
	"fmt"
	"strings"
)

// UserManager handles user account records
type UserManager struct {
	db *sql.DB
}

// NewUserManager creates a new user manager
func NewUserManager(db *sql.DB) *UserManager {
	return &UserManager{db: db}
}

// CreateUser inserts a new user account
func (um *UserManager) CreateUser(username, email, fullName string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	user := &User{
		Username: username,
		Email:    email,
		FullName: fullName,
		IsActive: true,
	}

	err := um.db.QueryRow(`
		INSERT INTO users (username, email, full_name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, true, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, username, email, fullName).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUser retrieves a user by ID
func (um *UserManager) GetUser(userID int64) (*User, error) {
	user := &User{}
	var fullName sql.NullString

	err := um.db.QueryRow(`
		SELECT id, username, email, full_name, is_active, created_at, updated_at, last_seen_at
		FROM users
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.Username, &user.Email, &fullName,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt, &user.LastSeenAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.FullName = fullName.String
	return user, nil
}
