package businesses

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations, in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users and api_tokens tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					username VARCHAR(255) NOT NULL UNIQUE,
					email VARCHAR(255) NOT NULL UNIQUE,
					full_name VARCHAR(255),
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					last_seen_at TIMESTAMPTZ
				);

				CREATE TABLE IF NOT EXISTS api_tokens (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					token_hash VARCHAR(64) NOT NULL UNIQUE,
					token_prefix VARCHAR(16) NOT NULL,
					name VARCHAR(255) NOT NULL,
					expires_at TIMESTAMPTZ,
					last_used_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					revoked_at TIMESTAMPTZ
				);

				CREATE INDEX idx_api_tokens_user_id ON api_tokens(user_id);
				CREATE INDEX idx_api_tokens_token_hash ON api_tokens(token_hash);
			`,
		},
		{
			Version:     2,
			Description: "Create businesses table",
			SQL: `
				CREATE TABLE IF NOT EXISTS businesses (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					slug VARCHAR(255) NOT NULL UNIQUE,
					description TEXT,
					owner_id BIGINT NOT NULL REFERENCES users(id),
					settings JSONB NOT NULL DEFAULT '{}',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_businesses_owner_id ON businesses(owner_id);
			`,
		},
		{
			Version:     3,
			Description: "Create business_members table",
			SQL: `
				CREATE TABLE IF NOT EXISTS business_members (
					id BIGSERIAL PRIMARY KEY,
					business_id BIGINT NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					role VARCHAR(16) NOT NULL CHECK (role IN ('admin', 'editor', 'viewer')),
					invited_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
					joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE(business_id, user_id)
				);

				CREATE INDEX idx_business_members_business_id ON business_members(business_id);
				CREATE INDEX idx_business_members_user_id ON business_members(user_id);
			`,
		},
		{
			Version:     4,
			Description: "Create business_invitations table",
			SQL: `
				CREATE TABLE IF NOT EXISTS business_invitations (
					id BIGSERIAL PRIMARY KEY,
					business_id BIGINT NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
					email VARCHAR(255) NOT NULL,
					role VARCHAR(16) NOT NULL CHECK (role IN ('admin', 'editor', 'viewer')),
					token VARCHAR(64) NOT NULL UNIQUE,
					status VARCHAR(16) NOT NULL DEFAULT 'pending'
						CHECK (status IN ('pending', 'accepted', 'declined')),
					invited_by BIGINT NOT NULL REFERENCES users(id),
					expires_at TIMESTAMPTZ NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_business_invitations_business_id ON business_invitations(business_id);
				CREATE INDEX idx_business_invitations_token ON business_invitations(token);

				-- At most one live pending invitation per (business, email).
				-- This is what makes "check then insert" race-free.
				CREATE UNIQUE INDEX idx_business_invitations_pending
					ON business_invitations(business_id, email)
					WHERE status = 'pending';
			`,
		},
		{
			Version:     5,
			Description: "Create business_access_requests table",
			SQL: `
				CREATE TABLE IF NOT EXISTS business_access_requests (
					id BIGSERIAL PRIMARY KEY,
					business_id BIGINT NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					requested_role VARCHAR(16) NOT NULL CHECK (requested_role IN ('editor', 'viewer')),
					message TEXT,
					status VARCHAR(16) NOT NULL DEFAULT 'pending'
						CHECK (status IN ('pending', 'approved', 'rejected')),
					reviewed_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
					reviewed_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_business_access_requests_business_id ON business_access_requests(business_id);

				CREATE UNIQUE INDEX idx_business_access_requests_pending
					ON business_access_requests(business_id, user_id)
					WHERE status = 'pending';
			`,
		},
		{
			Version:     6,
			Description: "Create team_audit_log table",
			SQL: `
				CREATE TABLE IF NOT EXISTS team_audit_log (
					id BIGSERIAL PRIMARY KEY,
					business_id BIGINT NOT NULL,
					actor_id BIGINT NOT NULL,
					action VARCHAR(64) NOT NULL,
					target VARCHAR(255),
					detail JSONB NOT NULL DEFAULT '{}',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_team_audit_log_business_id ON team_audit_log(business_id);
				CREATE INDEX idx_team_audit_log_created_at ON team_audit_log(created_at);
			`,
		},
	}
}

// RunMigrations applies all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
